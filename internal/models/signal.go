package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a signal or position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for LONG and -1 for SHORT as a decimal multiplier.
func (d Direction) Sign() decimal.Decimal {
	if d == DirectionShort {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Signal is a trading signal emitted by a strategy. The orchestrator
// persists it with ActedOn=false; the paper engine flips ActedOn to
// true exactly once when it consumes the signal.
type Signal struct {
	ID         int64           `json:"id"`
	TS         time.Time       `json:"ts"`
	Strategy   string          `json:"strategy"`
	Asset      string          `json:"asset"`
	Exchange   string          `json:"exchange"`
	Direction  Direction       `json:"direction"`
	Confidence float64         `json:"confidence"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	ActedOn    bool            `json:"acted_on"`
}
