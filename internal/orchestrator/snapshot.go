package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecore/tradecore/internal/models"
)

// SnapshotOptions control how much history a snapshot carries.
type SnapshotOptions struct {
	CandleLookback int
	MarketLookback int
	FundingWindow  time.Duration
}

// DefaultSnapshotOptions returns the lookbacks the strategies are
// tuned for.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{
		CandleLookback: 100,
		MarketLookback: 10,
		FundingWindow:  7 * 24 * time.Hour,
	}
}

// Store is what the orchestrator needs from the persistence layer.
type Store interface {
	LatestCandles(ctx context.Context, exchange, asset, interval string, limit int) ([]models.Candle, error)
	FundingSince(ctx context.Context, exchange, asset string, since time.Time) ([]models.FundingSnapshot, error)
	LatestMarkets(ctx context.Context, asset string, limit int) ([]models.PolymarketMarket, error)
	InsertSignal(ctx context.Context, s *models.Signal) error
}

// BuildSnapshot assembles the market data bundle strategies evaluate:
// recent candles and a trailing funding window from the perp venue
// plus the latest prediction market state, all for one asset.
func BuildSnapshot(ctx context.Context, store Store, asset, candleInterval string, now time.Time, opts SnapshotOptions) (*models.MarketSnapshot, error) {
	candles, err := store.LatestCandles(ctx, "hyperliquid", asset, candleInterval, opts.CandleLookback)
	if err != nil {
		return nil, fmt.Errorf("snapshot candles for %s: %w", asset, err)
	}
	funding, err := store.FundingSince(ctx, "hyperliquid", asset, now.Add(-opts.FundingWindow))
	if err != nil {
		return nil, fmt.Errorf("snapshot funding for %s: %w", asset, err)
	}
	markets, err := store.LatestMarkets(ctx, asset, opts.MarketLookback)
	if err != nil {
		return nil, fmt.Errorf("snapshot markets for %s: %w", asset, err)
	}

	return &models.MarketSnapshot{
		Asset:      asset,
		TS:         now,
		Candles:    candles,
		Funding:    funding,
		Polymarket: markets,
	}, nil
}
