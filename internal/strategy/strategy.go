// Package strategy contains the signal-generating strategies and the
// registry the orchestrator instantiates them from. A strategy is a
// pure function of the market snapshot: it never touches the database
// and never manages positions.
package strategy

import (
	"context"

	"github.com/tradecore/tradecore/internal/models"
)

// Venue names signals are attributed to.
const (
	VenueHyperliquid = "hyperliquid"
	VenuePolymarket  = "polymarket"
)

// Strategy evaluates one asset's market snapshot and emits at most one
// signal. Returning (nil, nil) means no opportunity.
type Strategy interface {
	// Name is the unique registry key, also stored on every signal.
	Name() string

	// Exchange is the venue signals are attributed to. It decides
	// which paper accounts consume the signal.
	Exchange() string

	// Interval is the evaluation cadence ("1m", "5m", "10m", "15m",
	// "1h"). The orchestrator will not evaluate the strategy for the
	// same asset more than once per interval.
	Interval() string

	// Evaluate inspects the snapshot and returns a signal or nil.
	Evaluate(ctx context.Context, snap *models.MarketSnapshot) (*models.Signal, error)
}

// Params is the per-strategy parameter override bag from config.
type Params map[string]any

// Float reads a float parameter, falling back to def when absent or
// not numeric.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Int reads an integer parameter, falling back to def.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
