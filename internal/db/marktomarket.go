package db

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecore/tradecore/internal/models"
)

// InsertMarkToMarket appends one per-account valuation snapshot.
func (db *DB) InsertMarkToMarket(ctx context.Context, m *models.MarkToMarket) error {
	query := `
		INSERT INTO trading_accounts.account_mark_to_market (
			account_id, ts, total_equity, unrealised_pnl, realised_pnl,
			open_positions, strategy_breakdown
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := db.pool.QueryRow(ctx, query,
		m.AccountID, m.TS, m.TotalEquity, m.UnrealisedPnL, m.RealisedPnL,
		m.OpenPositions, m.Breakdown,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert mark-to-market: %w", err)
	}

	return nil
}

// LatestMark returns the newest valuation snapshot for the account,
// or nil when the account has never been marked.
func (db *DB) LatestMark(ctx context.Context, accountID int64) (*models.MarkToMarket, error) {
	query := `
		SELECT id, account_id, ts, total_equity, unrealised_pnl, realised_pnl,
		       open_positions, strategy_breakdown
		FROM trading_accounts.account_mark_to_market
		WHERE account_id = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	rows, err := db.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest mark: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var m models.MarkToMarket
	if err := rows.Scan(
		&m.ID, &m.AccountID, &m.TS, &m.TotalEquity, &m.UnrealisedPnL, &m.RealisedPnL,
		&m.OpenPositions, &m.Breakdown,
	); err != nil {
		return nil, fmt.Errorf("failed to scan mark: %w", err)
	}
	return &m, nil
}

// EquityCurve returns the account's valuation snapshots at or after
// the cutoff, oldest-first.
func (db *DB) EquityCurve(ctx context.Context, accountID int64, since time.Time) ([]models.MarkToMarket, error) {
	query := `
		SELECT id, account_id, ts, total_equity, unrealised_pnl, realised_pnl,
		       open_positions, strategy_breakdown
		FROM trading_accounts.account_mark_to_market
		WHERE account_id = $1 AND ts >= $2
		ORDER BY ts
	`

	rows, err := db.pool.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity curve: %w", err)
	}
	defer rows.Close()

	var marks []models.MarkToMarket
	for rows.Next() {
		var m models.MarkToMarket
		if err := rows.Scan(
			&m.ID, &m.AccountID, &m.TS, &m.TotalEquity, &m.UnrealisedPnL, &m.RealisedPnL,
			&m.OpenPositions, &m.Breakdown,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mark: %w", err)
		}
		marks = append(marks, m)
	}
	return marks, rows.Err()
}

// GroupEquityPoint is one time-bucketed sample of a portfolio group's
// combined equity.
type GroupEquityPoint struct {
	TS          time.Time `json:"ts"`
	TotalEquity float64   `json:"total_equity"`
	Accounts    int       `json:"accounts"`
}

// GroupEquityCurve sums, per time bucket, the latest mark of each
// member account of the group. Buckets are truncated to the given
// interval (e.g. "hour").
func (db *DB) GroupEquityCurve(ctx context.Context, groupID int64, since time.Time, bucket string) ([]GroupEquityPoint, error) {
	query := `
		SELECT bucket_ts, SUM(total_equity)::float8, COUNT(DISTINCT account_id)::int
		FROM (
			SELECT DISTINCT ON (account_id, date_trunc($3, ts))
				date_trunc($3, ts) AS bucket_ts,
				account_id,
				total_equity
			FROM trading_accounts.account_mark_to_market
			WHERE ts >= $2
			  AND account_id IN (
				SELECT account_id FROM trading_accounts.portfolio_members
				WHERE portfolio_id = $1
			  )
			ORDER BY account_id, date_trunc($3, ts), ts DESC
		) latest
		GROUP BY bucket_ts
		ORDER BY bucket_ts
	`

	rows, err := db.pool.Query(ctx, query, groupID, since, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to query group equity curve: %w", err)
	}
	defer rows.Close()

	var points []GroupEquityPoint
	for rows.Next() {
		var p GroupEquityPoint
		if err := rows.Scan(&p.TS, &p.TotalEquity, &p.Accounts); err != nil {
			return nil, fmt.Errorf("failed to scan group equity point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
