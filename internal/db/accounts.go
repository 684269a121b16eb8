package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/models"
)

// EnsureAccount returns the account for (name, exchange, strategy),
// creating it with the given initial capital if it does not exist.
// Idempotent: re-running bootstrap never duplicates accounts.
func (db *DB) EnsureAccount(ctx context.Context, name, exchange, strategy string, initialCapital decimal.Decimal) (*models.Account, error) {
	query := `
		INSERT INTO trading_accounts.accounts (name, exchange, strategy, initial_capital, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, exchange, strategy, initial_capital, active, created_at
	`

	var a models.Account
	err := db.pool.QueryRow(ctx, query, name, exchange, strategy, initialCapital).Scan(
		&a.ID, &a.Name, &a.Exchange, &a.Strategy, &a.InitialCapital, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account %q: %w", name, err)
	}
	return &a, nil
}

// ListActiveAccounts returns all accounts with active=TRUE.
func (db *DB) ListActiveAccounts(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT id, name, exchange, strategy, initial_capital, active, created_at
		FROM trading_accounts.accounts
		WHERE active = TRUE
		ORDER BY id
	`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Exchange, &a.Strategy, &a.InitialCapital, &a.Active, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount returns one account by ID.
func (db *DB) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, name, exchange, strategy, initial_capital, active, created_at
		FROM trading_accounts.accounts
		WHERE id = $1
	`

	var a models.Account
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Exchange, &a.Strategy, &a.InitialCapital, &a.Active, &a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return &a, nil
}

// EnsurePortfolioGroup creates a named aggregation group if missing.
func (db *DB) EnsurePortfolioGroup(ctx context.Context, name, description string) (*models.PortfolioGroup, error) {
	query := `
		INSERT INTO trading_accounts.portfolios (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, name, description, created_at
	`

	var g models.PortfolioGroup
	err := db.pool.QueryRow(ctx, query, name, description).Scan(
		&g.ID, &g.Name, &g.Description, &g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure portfolio group %q: %w", name, err)
	}
	return &g, nil
}

// AddGroupMember attaches an account to a portfolio group.
func (db *DB) AddGroupMember(ctx context.Context, groupID, accountID int64) error {
	query := `
		INSERT INTO trading_accounts.portfolio_members (portfolio_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := db.pool.Exec(ctx, query, groupID, accountID); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// ListPortfolioGroups returns all aggregation groups.
func (db *DB) ListPortfolioGroups(ctx context.Context) ([]models.PortfolioGroup, error) {
	query := `
		SELECT id, name, description, created_at
		FROM trading_accounts.portfolios
		ORDER BY id
	`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio groups: %w", err)
	}
	defer rows.Close()

	var groups []models.PortfolioGroup
	for rows.Next() {
		var g models.PortfolioGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GroupAccountIDs returns the member account IDs of a group.
func (db *DB) GroupAccountIDs(ctx context.Context, groupID int64) ([]int64, error) {
	query := `
		SELECT account_id
		FROM trading_accounts.portfolio_members
		WHERE portfolio_id = $1
		ORDER BY account_id
	`

	rows, err := db.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
