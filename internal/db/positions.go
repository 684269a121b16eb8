package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/models"
)

// OpenPosition inserts a new OPEN position and fills in the generated
// ID.
func (db *DB) OpenPosition(ctx context.Context, p *models.Position) error {
	query := `
		INSERT INTO trading_accounts.account_positions (
			account_id, strategy, asset, exchange, direction,
			entry_price, entry_ts, quantity, status, signal_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'OPEN', $9, $10)
		RETURNING id
	`

	err := db.pool.QueryRow(ctx, query,
		p.AccountID, p.Strategy, p.Asset, p.Exchange, p.Direction,
		p.EntryPrice, p.EntryTS, p.Quantity, p.SignalID, p.Metadata,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to open position: %w", err)
	}

	p.Status = models.PositionOpen
	return nil
}

// ClosePosition marks an OPEN position CLOSED with the exit fields.
// metadata is merged into the row's existing metadata, so entry-time
// keys survive the close. Closing an already-closed position is an
// error, which keeps the close path idempotence-safe under concurrent
// engines.
func (db *DB) ClosePosition(ctx context.Context, id int64, exitPrice decimal.Decimal, exitTS time.Time, exitReason string, realisedPnL decimal.Decimal, metadata map[string]any) error {
	query := `
		UPDATE trading_accounts.account_positions
		SET exit_price = $2,
		    exit_ts = $3,
		    exit_reason = $4,
		    realised_pnl = $5,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $6,
		    status = 'CLOSED'
		WHERE id = $1 AND status = 'OPEN'
	`

	if metadata == nil {
		metadata = map[string]any{}
	}
	tag, err := db.pool.Exec(ctx, query, id, exitPrice, exitTS, exitReason, realisedPnL, metadata)
	if err != nil {
		return fmt.Errorf("failed to close position %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %d is not open", id)
	}
	return nil
}

// ListOpenPositions returns the account's OPEN positions oldest-first.
func (db *DB) ListOpenPositions(ctx context.Context, accountID int64) ([]models.Position, error) {
	query := selectPositions + `
		WHERE account_id = $1 AND status = 'OPEN'
		ORDER BY entry_ts
	`

	rows, err := db.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ListClosedPositions returns the account's CLOSED positions in exit
// order, oldest-first, up to limit (0 means no limit).
func (db *DB) ListClosedPositions(ctx context.Context, accountID int64, limit int) ([]models.Position, error) {
	query := selectPositions + `
		WHERE account_id = $1 AND status = 'CLOSED'
		ORDER BY exit_ts
	`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// RealisedPnLSince sums realised PnL of positions closed at or after
// the cutoff. Feeds the daily loss limit.
func (db *DB) RealisedPnLSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(realised_pnl), 0)
		FROM trading_accounts.account_positions
		WHERE account_id = $1 AND status = 'CLOSED' AND exit_ts >= $2
	`

	var pnl decimal.Decimal
	if err := db.pool.QueryRow(ctx, query, accountID, since).Scan(&pnl); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to sum realised pnl: %w", err)
	}
	return pnl, nil
}

// LastLossExit returns the exit time of the account's most recent
// losing trade. Returns ok=false when there is none. Feeds the
// cooldown gate, which pauses the whole strategy account.
func (db *DB) LastLossExit(ctx context.Context, accountID int64) (time.Time, bool, error) {
	query := `
		SELECT exit_ts
		FROM trading_accounts.account_positions
		WHERE account_id = $1
		  AND status = 'CLOSED' AND realised_pnl < 0
		ORDER BY exit_ts DESC
		LIMIT 1
	`

	var ts time.Time
	err := db.pool.QueryRow(ctx, query, accountID).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last loss exit: %w", err)
	}
	return ts, true, nil
}

const selectPositions = `
	SELECT id, account_id, strategy, asset, exchange, direction,
	       entry_price, entry_ts, quantity,
	       exit_price, exit_ts, exit_reason, realised_pnl,
	       status, signal_id, metadata
	FROM trading_accounts.account_positions
`

func scanPositions(rows pgx.Rows) ([]models.Position, error) {
	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.Strategy, &p.Asset, &p.Exchange, &p.Direction,
			&p.EntryPrice, &p.EntryTS, &p.Quantity,
			&p.ExitPrice, &p.ExitTS, &p.ExitReason, &p.RealisedPnL,
			&p.Status, &p.SignalID, &p.Metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
