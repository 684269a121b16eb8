package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tradecore/tradecore/internal/models"
)

// UpsertCandle writes one OHLCV bar, replacing any existing bar with
// the same (exchange, asset, interval, ts) key. Collectors re-fetch
// the open bar, so the last write wins.
func (db *DB) UpsertCandle(ctx context.Context, c *models.Candle) error {
	query := `
		INSERT INTO trading_market_data.candles (
			exchange, asset, interval, ts, open, high, low, close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (exchange, asset, interval, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	_, err := db.pool.Exec(ctx, query,
		c.Exchange, c.Asset, c.Interval, c.OpenTime,
		c.Open, c.High, c.Low, c.Close, c.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert candle: %w", err)
	}

	return nil
}

// UpsertCandles writes a batch of bars inside one transaction. Used by
// the backfill path.
func (db *DB) UpsertCandles(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin candle batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trading_market_data.candles (
			exchange, asset, interval, ts, open, high, low, close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (exchange, asset, interval, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for i := range candles {
		c := &candles[i]
		if _, err := tx.Exec(ctx, query,
			c.Exchange, c.Asset, c.Interval, c.OpenTime,
			c.Open, c.High, c.Low, c.Close, c.Volume,
		); err != nil {
			return fmt.Errorf("failed to upsert candle batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LatestCandles returns up to limit most recent bars for the key,
// ordered oldest-first so indicator pipelines can consume them
// directly.
func (db *DB) LatestCandles(ctx context.Context, exchange, asset, interval string, limit int) ([]models.Candle, error) {
	query := `
		SELECT exchange, asset, interval, ts, open, high, low, close, volume
		FROM (
			SELECT exchange, asset, interval, ts, open, high, low, close, volume
			FROM trading_market_data.candles
			WHERE exchange = $1 AND asset = $2 AND interval = $3
			ORDER BY ts DESC
			LIMIT $4
		) recent
		ORDER BY ts ASC
	`

	rows, err := db.pool.Query(ctx, query, exchange, asset, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

func scanCandles(rows pgx.Rows) ([]models.Candle, error) {
	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(
			&c.Exchange, &c.Asset, &c.Interval, &c.OpenTime,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}
