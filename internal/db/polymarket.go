package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/models"
)

// UpsertPolymarketMarket writes one prediction market snapshot, keyed
// by (market_id, ts).
func (db *DB) UpsertPolymarketMarket(ctx context.Context, m *models.PolymarketMarket) error {
	query := `
		INSERT INTO trading_market_data.polymarket_markets (
			market_id, market_title, asset, ts,
			yes_price, no_price, volume_24h, liquidity, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (market_id, ts) DO UPDATE SET
			market_title = EXCLUDED.market_title,
			yes_price = EXCLUDED.yes_price,
			no_price = EXCLUDED.no_price,
			volume_24h = EXCLUDED.volume_24h,
			liquidity = EXCLUDED.liquidity,
			end_date = EXCLUDED.end_date
	`

	_, err := db.pool.Exec(ctx, query,
		m.MarketID, m.MarketTitle, m.Asset, m.TS,
		m.YesPrice, m.NoPrice, m.Volume24h, m.Liquidity, m.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert polymarket market: %w", err)
	}

	return nil
}

// LatestMarkets returns the most recent snapshot row per market for
// the asset, newest snapshot first.
func (db *DB) LatestMarkets(ctx context.Context, asset string, limit int) ([]models.PolymarketMarket, error) {
	query := `
		SELECT DISTINCT ON (market_id)
			market_id, market_title, asset, ts,
			yes_price, no_price, volume_24h, liquidity, end_date
		FROM trading_market_data.polymarket_markets
		WHERE asset = $1
		ORDER BY market_id, ts DESC
		LIMIT $2
	`

	rows, err := db.pool.Query(ctx, query, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query polymarket markets: %w", err)
	}
	defer rows.Close()

	var markets []models.PolymarketMarket
	for rows.Next() {
		var m models.PolymarketMarket
		if err := rows.Scan(
			&m.MarketID, &m.MarketTitle, &m.Asset, &m.TS,
			&m.YesPrice, &m.NoPrice, &m.Volume24h, &m.Liquidity, &m.EndDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan polymarket market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// LatestYesPrice returns the most recent non-null yes price seen for
// the asset across all of its markets. Used by the oracle as a stale
// fallback when no live quote is available.
func (db *DB) LatestYesPrice(ctx context.Context, asset string) (decimal.Decimal, time.Time, error) {
	query := `
		SELECT yes_price, ts
		FROM trading_market_data.polymarket_markets
		WHERE asset = $1 AND yes_price IS NOT NULL
		ORDER BY ts DESC
		LIMIT 1
	`

	var price decimal.Decimal
	var ts time.Time
	err := db.pool.QueryRow(ctx, query, asset).Scan(&price, &ts)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("failed to query latest yes price: %w", err)
	}
	return price, ts, nil
}
