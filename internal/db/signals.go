package db

import (
	"context"
	"fmt"

	"github.com/tradecore/tradecore/internal/models"
)

// InsertSignal persists a strategy signal with acted_on=false and
// fills in the generated ID.
func (db *DB) InsertSignal(ctx context.Context, s *models.Signal) error {
	query := `
		INSERT INTO trading_signals.signals (
			ts, strategy, asset, exchange, direction,
			confidence, entry_price, metadata, acted_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		RETURNING id
	`

	err := db.pool.QueryRow(ctx, query,
		s.TS, s.Strategy, s.Asset, s.Exchange, s.Direction,
		s.Confidence, s.EntryPrice, s.Metadata,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	return nil
}

// ConsumeSignals atomically claims unacted signals for one
// (exchange, strategy) pair and returns them oldest-first. The
// FOR UPDATE SKIP LOCKED subquery makes concurrent engine instances
// never double-consume a signal: each row is claimed by exactly one
// caller.
func (db *DB) ConsumeSignals(ctx context.Context, exchange, strategy string, limit int) ([]models.Signal, error) {
	query := `
		UPDATE trading_signals.signals
		SET acted_on = TRUE
		WHERE id IN (
			SELECT id
			FROM trading_signals.signals
			WHERE acted_on = FALSE
			  AND exchange = $1
			  AND strategy = $2
			ORDER BY ts
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, ts, strategy, asset, exchange,
		          direction, confidence, entry_price, metadata, acted_on
	`

	rows, err := db.pool.Query(ctx, query, exchange, strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to consume signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var s models.Signal
		if err := rows.Scan(
			&s.ID, &s.TS, &s.Strategy, &s.Asset, &s.Exchange,
			&s.Direction, &s.Confidence, &s.EntryPrice, &s.Metadata, &s.ActedOn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// RecentSignals returns the newest signals across all strategies,
// optionally filtered by strategy name. Used by the read API.
func (db *DB) RecentSignals(ctx context.Context, strategy string, limit int) ([]models.Signal, error) {
	query := `
		SELECT id, ts, strategy, asset, exchange,
		       direction, confidence, entry_price, metadata, acted_on
		FROM trading_signals.signals
		WHERE ($1 = '' OR strategy = $1)
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := db.pool.Query(ctx, query, strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var s models.Signal
		if err := rows.Scan(
			&s.ID, &s.TS, &s.Strategy, &s.Asset, &s.Exchange,
			&s.Direction, &s.Confidence, &s.EntryPrice, &s.Metadata, &s.ActedOn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
