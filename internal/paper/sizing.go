package paper

import (
	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/config"
)

// Sizer converts a signal into a position quantity. The default scheme
// is fixed-fractional: risk a fixed slice of equity against the stop.
// With Kelly enabled, confidence scales the assumed win probability
// and the Kelly fraction sets the notional, capped by the
// fixed-fractional amount.
type Sizer struct {
	cfg config.PaperConfig
}

// NewSizer creates a sizer from the engine config.
func NewSizer(cfg config.PaperConfig) *Sizer {
	return &Sizer{cfg: cfg}
}

// Quantity returns the position size for the given account equity,
// signal confidence and entry price. Returns zero when the inputs
// cannot produce a positive size.
func (s *Sizer) Quantity(equity decimal.Decimal, confidence float64, entryPrice decimal.Decimal) decimal.Decimal {
	if equity.Sign() <= 0 || entryPrice.Sign() <= 0 {
		return decimal.Zero
	}

	maxNotional := equity.
		Mul(decimal.NewFromFloat(s.cfg.RiskPerTrade)).
		Div(decimal.NewFromFloat(s.cfg.StopLossPct))
	fixedQty := maxNotional.Div(entryPrice)

	if !s.cfg.Kelly.Enabled {
		return fixedQty
	}

	// Confidence interpolates the win probability from the base rate
	// towards certainty; payoff ratio comes from the exit levels. The
	// Kelly fraction is a dimensionless scalar; everything it scales
	// stays decimal.
	p := s.cfg.Kelly.BaseWinRate + confidence*(1-s.cfg.Kelly.BaseWinRate)
	b := s.cfg.TakeProfitPct / s.cfg.StopLossPct
	kelly := (p*b - (1 - p)) / b
	if kelly <= 0 {
		return fixedQty
	}
	kelly *= s.cfg.Kelly.SafetyFactor

	notional := equity.Mul(decimal.NewFromFloat(kelly))
	if notional.GreaterThan(maxNotional) {
		notional = maxNotional
	}

	return notional.Div(entryPrice)
}
