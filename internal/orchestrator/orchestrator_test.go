package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecore/tradecore/internal/models"
	"github.com/tradecore/tradecore/internal/strategy"
)

type fakeStore struct {
	candles []models.Candle
	funding []models.FundingSnapshot
	markets []models.PolymarketMarket

	signals      []models.Signal
	insertErr    error
	snapshotHits int

	lastCandleLimit  int
	lastFundingSince time.Time
	lastMarketLimit  int
}

func (f *fakeStore) LatestCandles(_ context.Context, _, _, _ string, limit int) ([]models.Candle, error) {
	f.snapshotHits++
	f.lastCandleLimit = limit
	return f.candles, nil
}

func (f *fakeStore) FundingSince(_ context.Context, _, _ string, since time.Time) ([]models.FundingSnapshot, error) {
	f.lastFundingSince = since
	return f.funding, nil
}

func (f *fakeStore) LatestMarkets(_ context.Context, _ string, limit int) ([]models.PolymarketMarket, error) {
	f.lastMarketLimit = limit
	return f.markets, nil
}

func (f *fakeStore) InsertSignal(_ context.Context, s *models.Signal) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	s.ID = int64(len(f.signals) + 1)
	f.signals = append(f.signals, *s)
	return nil
}

// stubStrategy fires a fixed signal every evaluation.
type stubStrategy struct {
	name     string
	interval string
	signal   *models.Signal
	err      error
	panics   bool
	evals    int
}

func (s *stubStrategy) Name() string     { return s.name }
func (s *stubStrategy) Exchange() string { return "hyperliquid" }
func (s *stubStrategy) Interval() string { return s.interval }

func (s *stubStrategy) Evaluate(_ context.Context, snap *models.MarketSnapshot) (*models.Signal, error) {
	s.evals++
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.signal == nil {
		return nil, nil
	}
	sig := *s.signal
	sig.Asset = snap.Asset
	sig.TS = snap.TS
	return &sig, nil
}

func newTestOrchestrator(t *testing.T, store Store, strategies ...strategy.Strategy) *Orchestrator {
	t.Helper()
	o, err := New(store, strategies, []string{"BTC"}, "1m", 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return o
}

func TestTickPersistsSignals(t *testing.T) {
	store := &fakeStore{}
	stub := &stubStrategy{
		name:     "stub",
		interval: "5m",
		signal: &models.Signal{
			Strategy:   "stub",
			Exchange:   "hyperliquid",
			Direction:  models.DirectionLong,
			Confidence: 0.7,
			EntryPrice: decimal.NewFromInt(50000),
		},
	}

	o := newTestOrchestrator(t, store, stub)
	o.tickOnce(context.Background())

	require.Len(t, store.signals, 1)
	assert.Equal(t, "BTC", store.signals[0].Asset)
	assert.Equal(t, int64(1), store.signals[0].ID)
}

func TestRateLimitPerStrategyAsset(t *testing.T) {
	store := &fakeStore{}
	stub := &stubStrategy{name: "stub", interval: "5m"}

	o := newTestOrchestrator(t, store, stub)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }

	o.tickOnce(context.Background())
	assert.Equal(t, 1, stub.evals)

	// Within the interval: not due.
	now = now.Add(time.Minute)
	o.tickOnce(context.Background())
	assert.Equal(t, 1, stub.evals)

	// At the interval boundary: due again.
	now = now.Add(4 * time.Minute)
	o.tickOnce(context.Background())
	assert.Equal(t, 2, stub.evals)
}

func TestSnapshotBuiltOncePerAssetPerTick(t *testing.T) {
	store := &fakeStore{}
	a := &stubStrategy{name: "a", interval: "5m"}
	b := &stubStrategy{name: "b", interval: "5m"}

	o := newTestOrchestrator(t, store, a, b)
	o.tickOnce(context.Background())

	assert.Equal(t, 1, a.evals)
	assert.Equal(t, 1, b.evals)
	assert.Equal(t, 1, store.snapshotHits, "both strategies must share one snapshot")
}

func TestStrategyPanicDoesNotKillTick(t *testing.T) {
	store := &fakeStore{}
	bad := &stubStrategy{name: "bad", interval: "5m", panics: true}
	good := &stubStrategy{
		name:     "good",
		interval: "5m",
		signal: &models.Signal{
			Strategy:   "good",
			Direction:  models.DirectionShort,
			EntryPrice: decimal.NewFromInt(1),
		},
	}

	o := newTestOrchestrator(t, store, bad, good)
	o.tickOnce(context.Background())

	assert.Equal(t, 1, bad.evals)
	require.Len(t, store.signals, 1, "the healthy strategy must still run")
	assert.Equal(t, "good", store.signals[0].Strategy)
}

func TestStrategyErrorIsNonFatal(t *testing.T) {
	store := &fakeStore{}
	failing := &stubStrategy{name: "failing", interval: "5m", err: errors.New("no data")}

	o := newTestOrchestrator(t, store, failing)
	o.tickOnce(context.Background())
	assert.Empty(t, store.signals)
}

func TestNewRejectsUnknownInterval(t *testing.T) {
	store := &fakeStore{}
	_, err := New(store, []strategy.Strategy{&stubStrategy{name: "x", interval: "3d"}},
		[]string{"BTC"}, "1m", time.Second, zerolog.Nop())
	assert.Error(t, err)
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		candles: []models.Candle{{Asset: "BTC", Close: decimal.NewFromInt(50000)}},
		funding: []models.FundingSnapshot{{Asset: "BTC", FundingRate: decimal.NewFromFloat(0.001)}},
		markets: []models.PolymarketMarket{{MarketID: "m1", Asset: "BTC"}},
	}

	snap, err := BuildSnapshot(context.Background(), store, "BTC", "1m", now, DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, "BTC", snap.Asset)
	assert.Equal(t, now, snap.TS)
	assert.Len(t, snap.Candles, 1)
	assert.Len(t, snap.Funding, 1)
	assert.Len(t, snap.Polymarket, 1)
}

func TestSnapshotWindowDefaults(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}

	_, err := BuildSnapshot(context.Background(), store, "BTC", "1m", now, DefaultSnapshotOptions())
	require.NoError(t, err)

	assert.Equal(t, 100, store.lastCandleLimit)
	assert.Equal(t, 10, store.lastMarketLimit)
	assert.Equal(t, now.Add(-7*24*time.Hour), store.lastFundingSince,
		"funding must cover a trailing seven day window")

	opts := SnapshotOptions{CandleLookback: 20, MarketLookback: 5, FundingWindow: time.Hour}
	_, err = BuildSnapshot(context.Background(), store, "BTC", "1m", now, opts)
	require.NoError(t, err)
	assert.Equal(t, 20, store.lastCandleLimit)
	assert.Equal(t, 5, store.lastMarketLimit)
	assert.Equal(t, now.Add(-time.Hour), store.lastFundingSince)
}
