package collector

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecore/tradecore/internal/exchange"
)

func TestClassifyAsset(t *testing.T) {
	tests := []struct {
		question string
		asset    string
		ok       bool
	}{
		{"Will Bitcoin reach $200k by December?", "BTC", true},
		{"Will BTC dominance exceed 60%?", "BTC", true},
		{"Will Ethereum flip Bitcoin?", "ETH", true},
		{"ETH above $5000 this month?", "ETH", true},
		{"Will Solana process 100k TPS?", "SOL", true},
		{"Will the Fed cut rates in September?", "", false},
	}

	for _, tt := range tests {
		asset, ok := ClassifyAsset(tt.question)
		assert.Equal(t, tt.ok, ok, tt.question)
		assert.Equal(t, tt.asset, asset, tt.question)
	}
}

func TestExtractObservations(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	raw := []exchange.RawMarket{
		{
			ID:            "m1",
			Question:      "Will Bitcoin reach $200k by December?",
			OutcomePrices: json.RawMessage(`["0.84", "0.16"]`),
			Volume24hr:    12345,
			Liquidity:     "5000",
			EndDate:       "2026-12-31T00:00:00Z",
		},
		{
			// String-encoded outcomePrices, as Gamma returns them.
			ID:            "m2",
			Question:      "ETH above $5000?",
			OutcomePrices: json.RawMessage(`"[\"0.30\", \"0.70\"]"`),
		},
		{
			// Not crypto: dropped.
			ID:       "m3",
			Question: "Will it rain in NYC tomorrow?",
		},
	}

	obs := ExtractObservations(raw, now)
	require.Len(t, obs, 2)

	assert.Equal(t, "m1", obs[0].MarketID)
	assert.Equal(t, "BTC", obs[0].Asset)
	require.True(t, obs[0].YesPrice.Valid)
	assert.Equal(t, "0.84", obs[0].YesPrice.Decimal.String())
	assert.Equal(t, "0.16", obs[0].NoPrice.Decimal.String())
	require.NotNil(t, obs[0].EndDate)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), *obs[0].EndDate)
	assert.True(t, obs[0].Liquidity.Valid)

	assert.Equal(t, "ETH", obs[1].Asset)
	require.True(t, obs[1].YesPrice.Valid)
	assert.Equal(t, "0.3", obs[1].YesPrice.Decimal.String())
	assert.Nil(t, obs[1].EndDate)
}

func TestExtractObservationsMalformedPrices(t *testing.T) {
	now := time.Now().UTC()
	raw := []exchange.RawMarket{{
		ID:            "bad",
		Question:      "Bitcoin up?",
		OutcomePrices: json.RawMessage(`["not-a-number"]`),
	}}

	obs := ExtractObservations(raw, now)
	require.Len(t, obs, 1)
	assert.False(t, obs[0].YesPrice.Valid, "unparseable prices must map to null, not drop the market")
}

func TestExtractObservationsTruncatesTitle(t *testing.T) {
	long := "Will Bitcoin " + strings.Repeat("x", 600)
	raw := []exchange.RawMarket{{ID: "m", Question: long}}

	obs := ExtractObservations(raw, time.Now().UTC())
	require.Len(t, obs, 1)
	assert.Len(t, obs[0].MarketTitle, maxTitleLen)
}

func TestIntervalDuration(t *testing.T) {
	d, err := intervalDuration("5m")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	_, err = intervalDuration("3d")
	assert.Error(t, err)
}
