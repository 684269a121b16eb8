package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tradecore/tradecore/internal/models"
)

// InsertFundingSnapshot appends one funding observation. The table is
// append-only; duplicate (exchange, asset, ts) rows are ignored.
func (db *DB) InsertFundingSnapshot(ctx context.Context, s *models.FundingSnapshot) error {
	query := `
		INSERT INTO trading_market_data.funding_snapshots (
			exchange, asset, ts, funding_rate, open_interest, mark_price
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (exchange, asset, ts) DO NOTHING
	`

	_, err := db.pool.Exec(ctx, query,
		s.Exchange, s.Asset, s.TS, s.FundingRate, s.OpenInterest, s.MarkPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert funding snapshot: %w", err)
	}

	return nil
}

// FundingSince returns the asset's funding observations at or after
// the cutoff, ordered oldest-first.
func (db *DB) FundingSince(ctx context.Context, exchange, asset string, since time.Time) ([]models.FundingSnapshot, error) {
	query := `
		SELECT exchange, asset, ts, funding_rate, open_interest, mark_price
		FROM trading_market_data.funding_snapshots
		WHERE exchange = $1 AND asset = $2 AND ts >= $3
		ORDER BY ts ASC
	`

	rows, err := db.pool.Query(ctx, query, exchange, asset, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query funding snapshots: %w", err)
	}
	defer rows.Close()

	return scanFundingSnapshots(rows)
}

// LatestFunding returns up to limit most recent funding observations
// for the asset, ordered oldest-first.
func (db *DB) LatestFunding(ctx context.Context, exchange, asset string, limit int) ([]models.FundingSnapshot, error) {
	query := `
		SELECT exchange, asset, ts, funding_rate, open_interest, mark_price
		FROM (
			SELECT exchange, asset, ts, funding_rate, open_interest, mark_price
			FROM trading_market_data.funding_snapshots
			WHERE exchange = $1 AND asset = $2
			ORDER BY ts DESC
			LIMIT $3
		) recent
		ORDER BY ts ASC
	`

	rows, err := db.pool.Query(ctx, query, exchange, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query funding snapshots: %w", err)
	}
	defer rows.Close()

	return scanFundingSnapshots(rows)
}

func scanFundingSnapshots(rows pgx.Rows) ([]models.FundingSnapshot, error) {
	var snaps []models.FundingSnapshot
	for rows.Next() {
		var s models.FundingSnapshot
		if err := rows.Scan(
			&s.Exchange, &s.Asset, &s.TS,
			&s.FundingRate, &s.OpenInterest, &s.MarkPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan funding snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
