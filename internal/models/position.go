package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a paper position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Exit reasons recorded on closed positions, in priority order.
const (
	ExitStopLoss   = "stop_loss"
	ExitTakeProfit = "take_profit"
	ExitTimeout    = "timeout"
)

// Account is a paper trading account bound to one (exchange, strategy)
// pair. One engine instance runs per active account.
type Account struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Exchange       string          `json:"exchange"`
	Strategy       string          `json:"strategy"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PortfolioGroup is a named bag of accounts used for aggregation only;
// it holds no capital of its own.
type PortfolioGroup struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Position is an open or closed paper position. A closed position has
// all of ExitPrice, ExitTS, ExitReason, RealisedPnL set and
// Status=CLOSED; an open position has none of them.
//
// EntryPrice and ExitPrice are slippage-adjusted; the raw venue prices
// and the slippage/fee figures live in Metadata.
type Position struct {
	ID          int64               `json:"id"`
	AccountID   int64               `json:"account_id"`
	Strategy    string              `json:"strategy"`
	Asset       string              `json:"asset"`
	Exchange    string              `json:"exchange"`
	Direction   Direction           `json:"direction"`
	EntryPrice  decimal.Decimal     `json:"entry_price"`
	EntryTS     time.Time           `json:"entry_ts"`
	Quantity    decimal.Decimal     `json:"quantity"`
	ExitPrice   decimal.NullDecimal `json:"exit_price"`
	ExitTS      *time.Time          `json:"exit_ts,omitempty"`
	ExitReason  *string             `json:"exit_reason,omitempty"`
	RealisedPnL decimal.NullDecimal `json:"realised_pnl"`
	Status      PositionStatus      `json:"status"`
	SignalID    *int64              `json:"signal_id,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
}

// Notional returns entry price times quantity.
func (p *Position) Notional() decimal.Decimal {
	return p.EntryPrice.Mul(p.Quantity)
}

// StrategyBreakdown is the per-strategy slice of a mark-to-market row.
type StrategyBreakdown struct {
	UnrealisedPnL float64 `json:"unrealised_pnl"`
	RealisedPnL   float64 `json:"realised_pnl"`
	OpenPositions int     `json:"open_positions"`
}

// MarkToMarket is an append-only per-account valuation snapshot.
type MarkToMarket struct {
	ID            int64                        `json:"id"`
	AccountID     int64                        `json:"account_id"`
	TS            time.Time                    `json:"ts"`
	TotalEquity   decimal.Decimal              `json:"total_equity"`
	UnrealisedPnL decimal.Decimal              `json:"unrealised_pnl"`
	RealisedPnL   decimal.Decimal              `json:"realised_pnl"`
	OpenPositions int                          `json:"open_positions"`
	Breakdown     map[string]StrategyBreakdown `json:"breakdown,omitempty"`
}
