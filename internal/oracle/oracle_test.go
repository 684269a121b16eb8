package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecore/tradecore/internal/config"
)

type fakeYesPriceStore struct {
	price decimal.Decimal
	ts    time.Time
	err   error
	calls int
}

func (f *fakeYesPriceStore) LatestYesPrice(_ context.Context, _ string) (decimal.Decimal, time.Time, error) {
	f.calls++
	return f.price, f.ts, f.err
}

func testConfig() config.OracleConfig {
	return config.OracleConfig{
		HyperliquidStaleness: 30 * time.Second,
		PolymarketStaleness:  600 * time.Second,
		WSReconnectDelay:     5 * time.Second,
	}
}

func TestHyperliquidPriceFreshAndStale(t *testing.T) {
	o := New(testConfig(), "", nil, nil)

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }

	o.SetMid("BTC", decimal.NewFromInt(50000))

	price, err := o.Price(context.Background(), "hyperliquid", "BTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(50000)))

	// Advance past the staleness threshold: the price must not be
	// served.
	now = now.Add(31 * time.Second)
	_, err = o.Price(context.Background(), "hyperliquid", "BTC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale")
}

func TestHyperliquidUnknownAsset(t *testing.T) {
	o := New(testConfig(), "", nil, nil)

	_, err := o.Price(context.Background(), "hyperliquid", "DOGE")
	assert.Error(t, err)
}

func TestPolymarketFallsBackToStore(t *testing.T) {
	store := &fakeYesPriceStore{
		price: decimal.NewFromFloat(0.84),
		ts:    time.Now().Add(-time.Minute),
	}
	o := New(testConfig(), "", nil, store)

	price, err := o.Price(context.Background(), "polymarket", "BTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.84)))
	assert.Equal(t, 1, store.calls)

	// Second read inside the staleness window is served from cache.
	_, err = o.Price(context.Background(), "polymarket", "BTC")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestPolymarketCacheExpiryRefetches(t *testing.T) {
	store := &fakeYesPriceStore{price: decimal.NewFromFloat(0.80)}
	o := New(testConfig(), "", nil, store)

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }

	_, err := o.Price(context.Background(), "polymarket", "ETH")
	require.NoError(t, err)

	now = now.Add(601 * time.Second)
	_, err = o.Price(context.Background(), "polymarket", "ETH")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestPolymarketStoreErrorSurfaces(t *testing.T) {
	store := &fakeYesPriceStore{err: errors.New("no rows")}
	o := New(testConfig(), "", nil, store)

	_, err := o.Price(context.Background(), "polymarket", "SOL")
	assert.Error(t, err)
}

func TestAllMidsOnlyCachesTrackedAssets(t *testing.T) {
	o := New(testConfig(), "", []string{"BTC", "ETH"}, nil)

	o.applyMids(map[string]string{
		"BTC":   "50000",
		"DOGE":  "0.07",
		"@142":  "1.5",
		"kPEPE": "bogus",
	})

	price, err := o.Price(context.Background(), "hyperliquid", "BTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(50000)))

	_, err = o.Price(context.Background(), "hyperliquid", "DOGE")
	assert.Error(t, err, "untracked symbols must not be cached")
	assert.Empty(t, o.hl["DOGE"].source)
}

func TestUnknownExchange(t *testing.T) {
	o := New(testConfig(), "", nil, nil)

	_, err := o.Price(context.Background(), "binance", "BTC")
	assert.Error(t, err)
}
