package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecore/tradecore/internal/config"
)

func testVenue(url string) config.VenueConfig {
	return config.VenueConfig{
		BaseURL:      url,
		PollInterval: time.Minute,
		RateLimitRPS: 1000,
	}
}

func TestMetaAndAssetCtxs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "metaAndAssetCtxs", body["type"])

		fmt.Fprint(w, `[
			{"universe": [{"name": "BTC"}, {"name": "ETH"}]},
			[
				{"funding": "0.0015", "openInterest": "12345.5", "markPx": "50000.5"},
				{"funding": "-0.0002", "openInterest": "", "markPx": "3000"}
			]
		]`)
	}))
	defer server.Close()

	client := NewHyperliquid(testVenue(server.URL), zerolog.Nop())
	ctxs, err := client.MetaAndAssetCtxs(context.Background())
	require.NoError(t, err)
	require.Len(t, ctxs, 2)

	assert.Equal(t, "BTC", ctxs[0].Asset)
	assert.Equal(t, "0.0015", ctxs[0].FundingRate.String())
	assert.True(t, ctxs[0].OpenInterest.Valid)
	assert.True(t, ctxs[0].MarkPrice.Valid)

	assert.Equal(t, "ETH", ctxs[1].Asset)
	assert.False(t, ctxs[1].OpenInterest.Valid, "empty openInterest string must map to null")
}

func TestCandleSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type string `json:"type"`
			Req  struct {
				Coin      string `json:"coin"`
				Interval  string `json:"interval"`
				StartTime int64  `json:"startTime"`
				EndTime   int64  `json:"endTime"`
			} `json:"req"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "candleSnapshot", body.Type)
		require.Equal(t, "BTC", body.Req.Coin)

		fmt.Fprint(w, `[
			{"t": 1756123200000, "o": "50000", "h": "50100", "l": "49900", "c": "50050", "v": "12.5"},
			{"t": 1756123260000, "o": "50050", "h": "50200", "l": "50000", "c": "50150", "v": "8.2"}
		]`)
	}))
	defer server.Close()

	client := NewHyperliquid(testVenue(server.URL), zerolog.Nop())
	candles, err := client.CandleSnapshot(context.Background(), "BTC", "1m",
		time.UnixMilli(1756123200000), time.UnixMilli(1756123260000))
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, "hyperliquid", candles[0].Exchange)
	assert.Equal(t, "1m", candles[0].Interval)
	assert.Equal(t, time.UnixMilli(1756123200000).UTC(), candles[0].OpenTime)
	assert.Equal(t, "50050", candles[0].Close.String())
}

func TestHyperliquidBreakerOpensOnRepeatedFailure(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadRequest) // non-retryable failure
	}))
	defer server.Close()

	client := NewHyperliquid(testVenue(server.URL), zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := client.MetaAndAssetCtxs(context.Background())
		require.Error(t, err)
	}
	hitsBeforeOpen := hits

	// The breaker is now open: further calls fail without reaching the
	// venue.
	_, err := client.MetaAndAssetCtxs(context.Background())
	require.Error(t, err)
	assert.Equal(t, hitsBeforeOpen, hits)
}

func gammaMarket(id string, yes float64) map[string]any {
	return map[string]any{
		"id":            id,
		"question":      "Will BTC reach $200k?",
		"outcomePrices": fmt.Sprintf(`["%v", "%v"]`, yes, 1-yes),
		"volume24hr":    12345.0,
		"liquidity":     "5000",
		"endDate":       "2026-12-31T00:00:00Z",
		"active":        true,
	}
}

func TestListActiveMarketsOffsetPagination(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("active"))
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		var page []map[string]any
		if offset == "0" {
			for i := 0; i < gammaPageSize; i++ {
				page = append(page, gammaMarket(fmt.Sprintf("m%d", i), 0.6))
			}
		} else {
			page = append(page, gammaMarket("last", 0.9))
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
	defer server.Close()

	client := NewPolymarket(testVenue(server.URL), zerolog.Nop())
	markets, err := client.ListActiveMarkets(context.Background())
	require.NoError(t, err)

	assert.Len(t, markets, gammaPageSize+1)
	assert.Equal(t, []string{"0", "100"}, offsets)
	assert.Equal(t, "last", markets[gammaPageSize].ID)
}

func TestListClobMarketsCursorPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("next_cursor")
		switch cursor {
		case "":
			fmt.Fprint(w, `{"data": [{"id": "a"}], "next_cursor": "abc"}`)
		case "abc":
			fmt.Fprint(w, `{"data": [{"id": "b"}], "next_cursor": "LTE="}`)
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))
	defer server.Close()

	client := NewPolymarket(testVenue(server.URL), zerolog.Nop())
	markets, err := client.ListClobMarkets(context.Background())
	require.NoError(t, err)

	require.Len(t, markets, 2)
	assert.Equal(t, "a", markets[0].ID)
	assert.Equal(t, "b", markets[1].ID)
}

func TestDecodeMarketsPageBothShapes(t *testing.T) {
	page, err := decodeMarketsPage([]byte(`[{"id": "x"}]`))
	require.NoError(t, err)
	require.Len(t, page.markets, 1)
	assert.Empty(t, page.nextCursor)

	page, err = decodeMarketsPage([]byte(`{"data": [{"id": "y"}], "next_cursor": "LTE="}`))
	require.NoError(t, err)
	require.Len(t, page.markets, 1)
	assert.Equal(t, clobEndCursor, page.nextCursor)

	_, err = decodeMarketsPage([]byte(`"nonsense"`))
	assert.Error(t, err)
}
