package paper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFixedFractionalQuantity(t *testing.T) {
	sizer := NewSizer(testPaperConfig())

	qty := sizer.Quantity(decimal.NewFromInt(10000), 0.5, decimal.NewFromInt(50000))
	// (10000 * 0.02) / (50000 * 0.02) = 0.2
	assert.InDelta(t, 0.2, qty.InexactFloat64(), 1e-9)
}

func TestQuantityIsExactDecimal(t *testing.T) {
	sizer := NewSizer(testPaperConfig())

	// (10000 * 0.02) / 0.02 = 10000 notional; 10000 / 50000 = 0.2,
	// exactly, with no float round trip.
	qty := sizer.Quantity(decimal.NewFromInt(10000), 0.5, decimal.NewFromInt(50000))
	assert.Equal(t, "0.2", qty.String())

	qty = sizer.Quantity(decimal.NewFromInt(30000), 0.5, decimal.NewFromInt(300))
	assert.True(t, qty.Equal(decimal.NewFromInt(100)))
}

func TestQuantityZeroOnBadInputs(t *testing.T) {
	sizer := NewSizer(testPaperConfig())

	assert.True(t, sizer.Quantity(decimal.Zero, 0.5, decimal.NewFromInt(50000)).IsZero())
	assert.True(t, sizer.Quantity(decimal.NewFromInt(10000), 0.5, decimal.Zero).IsZero())
}

func TestKellyQuantityGrowsWithConfidence(t *testing.T) {
	cfg := testPaperConfig()
	cfg.Kelly.Enabled = true
	sizer := NewSizer(cfg)

	equity := decimal.NewFromInt(10000)
	entry := decimal.NewFromInt(50000)

	low := sizer.Quantity(equity, 0.1, entry)
	high := sizer.Quantity(equity, 0.9, entry)
	assert.True(t, high.GreaterThan(low), "higher confidence must size larger")
}

func TestKellyFullConfidenceSizing(t *testing.T) {
	cfg := testPaperConfig()
	cfg.Kelly.Enabled = true
	sizer := NewSizer(cfg)

	// p=1, b=2: full Kelly is 1, halved by the safety factor.
	qty := sizer.Quantity(decimal.NewFromInt(10000), 1.0, decimal.NewFromInt(50000))
	assert.InDelta(t, 0.5*10000/50000, qty.InexactFloat64(), 1e-9)
}

func TestKellyCappedByFixedFractionalNotional(t *testing.T) {
	cfg := testPaperConfig()
	cfg.Kelly.Enabled = true
	cfg.Kelly.SafetyFactor = 1.0
	cfg.RiskPerTrade = 0.01 // cap notional at equity/2
	sizer := NewSizer(cfg)

	// Full Kelly at p=1 would bet the whole book; the
	// fixed-fractional cap halves it.
	qty := sizer.Quantity(decimal.NewFromInt(10000), 1.0, decimal.NewFromInt(50000))
	assert.InDelta(t, 5000.0/50000, qty.InexactFloat64(), 1e-9)
}

func TestKellyFallsBackWhenEdgeNegative(t *testing.T) {
	cfg := testPaperConfig()
	cfg.Kelly.Enabled = true
	cfg.Kelly.BaseWinRate = 0.2 // negative edge at low confidence
	sizer := NewSizer(cfg)

	equity := decimal.NewFromInt(10000)
	entry := decimal.NewFromInt(50000)

	qty := sizer.Quantity(equity, 0.0, entry)
	fixed := (10000 * 0.02) / (50000 * 0.02)
	assert.InDelta(t, fixed, qty.InexactFloat64(), 1e-9)
}
