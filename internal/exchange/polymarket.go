package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tradecore/tradecore/internal/config"
)

// Cursor value marking the last CLOB page.
const clobEndCursor = "LTE="

const gammaPageSize = 100

// RawMarket is one market as the Polymarket APIs return it, before any
// classification. OutcomePrices arrives either as a JSON array or as a
// string containing a JSON array, depending on the endpoint.
type RawMarket struct {
	ID            string          `json:"id"`
	ConditionID   string          `json:"conditionId"`
	Question      string          `json:"question"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Volume24hr    float64         `json:"volume24hr"`
	Liquidity     string          `json:"liquidity"`
	EndDate       string          `json:"endDate"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
}

// PolymarketClient reads market lists from the Gamma API, with the
// CLOB cursor format supported as an alternate source.
type PolymarketClient struct {
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewPolymarket creates a Polymarket client for the configured venue.
func NewPolymarket(cfg config.VenueConfig, log zerolog.Logger) *PolymarketClient {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		})

	return &PolymarketClient{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// ListActiveMarkets pages through /markets with offset pagination
// until a short page, returning every active, unresolved market.
func (c *PolymarketClient) ListActiveMarkets(ctx context.Context) ([]RawMarket, error) {
	var all []RawMarket
	for offset := 0; ; offset += gammaPageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"active": "true",
				"closed": "false",
				"limit":  strconv.Itoa(gammaPageSize),
				"offset": strconv.Itoa(offset),
			}).
			Get("/markets")
		if err != nil {
			return nil, fmt.Errorf("list markets: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("list markets: status %d: %s", resp.StatusCode(), resp.String())
		}

		page, err := decodeMarketsPage(resp.Body())
		if err != nil {
			return nil, err
		}

		all = append(all, page.markets...)
		if len(page.markets) < gammaPageSize {
			return all, nil
		}
	}
}

// ListClobMarkets pages through a CLOB-style endpoint using cursor
// pagination, stopping at the terminal cursor.
func (c *PolymarketClient) ListClobMarkets(ctx context.Context) ([]RawMarket, error) {
	var all []RawMarket
	cursor := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req := c.http.R().SetContext(ctx)
		if cursor != "" {
			req.SetQueryParam("next_cursor", cursor)
		}
		resp, err := req.Get("/markets")
		if err != nil {
			return nil, fmt.Errorf("list clob markets: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("list clob markets: status %d: %s", resp.StatusCode(), resp.String())
		}

		page, err := decodeMarketsPage(resp.Body())
		if err != nil {
			return nil, err
		}

		all = append(all, page.markets...)
		if page.nextCursor == "" || page.nextCursor == clobEndCursor {
			return all, nil
		}
		cursor = page.nextCursor
	}
}

type marketsPage struct {
	markets    []RawMarket
	nextCursor string
}

// decodeMarketsPage accepts both response shapes: a bare JSON array
// (Gamma) and a {"data": [...], "next_cursor": "..."} envelope (CLOB).
func decodeMarketsPage(body []byte) (marketsPage, error) {
	var bare []RawMarket
	if err := json.Unmarshal(body, &bare); err == nil {
		return marketsPage{markets: bare}, nil
	}

	var envelope struct {
		Data       []RawMarket `json:"data"`
		NextCursor string      `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return marketsPage{}, fmt.Errorf("failed to parse markets page: %w", err)
	}
	return marketsPage{markets: envelope.Data, nextCursor: envelope.NextCursor}, nil
}
