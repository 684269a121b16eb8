package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/models"
)

func init() {
	Register("funding_rate", func(params Params) Strategy {
		return &fundingRate{
			name:          "funding_rate",
			rateThreshold: params.Float("rate_threshold", 0.0012),
			confDivisor:   3,
		}
	})
	Register("funding_arb", func(params Params) Strategy {
		return &fundingRate{
			name:          "funding_arb",
			rateThreshold: params.Float("rate_threshold", 0.0005),
			confDivisor:   4,
		}
	})
	Register("funding_oi", func(params Params) Strategy {
		return &fundingOI{
			rateThreshold: params.Float("rate_threshold", 0.0015),
			oiPctMin:      params.Float("oi_pct_min", 85),
		}
	})
}

// fundingRate takes the side that collects funding when the rate is
// stretched: positive funding means longs pay shorts, so go SHORT, and
// vice versa. funding_rate and funding_arb share the mechanics; the
// arb variant fires on a much smaller rate with flatter confidence.
type fundingRate struct {
	name          string
	rateThreshold float64
	confDivisor   float64
}

func (s *fundingRate) Name() string     { return s.name }
func (s *fundingRate) Exchange() string { return VenueHyperliquid }
func (s *fundingRate) Interval() string { return "1m" }

func (s *fundingRate) Evaluate(_ context.Context, snap *models.MarketSnapshot) (*models.Signal, error) {
	latest := latestFunding(snap)
	if latest == nil {
		return nil, nil
	}

	rate := latest.FundingRate.InexactFloat64()
	if abs(rate) <= s.rateThreshold {
		return nil, nil
	}

	direction := models.DirectionShort
	if rate < 0 {
		direction = models.DirectionLong
	}

	entry, ok := fundingEntryPrice(latest, snap)
	if !ok {
		return nil, nil
	}

	return &models.Signal{
		TS:         snap.TS,
		Strategy:   s.name,
		Asset:      snap.Asset,
		Exchange:   s.Exchange(),
		Direction:  direction,
		Confidence: clamp01(abs(rate) / (s.confDivisor * s.rateThreshold)),
		EntryPrice: entry,
		Metadata: map[string]any{
			"funding_rate":   rate,
			"rate_threshold": s.rateThreshold,
		},
	}, nil
}

// fundingOI only fires when a stretched funding rate coincides with
// open interest near its recent high, i.e. a crowded trade.
type fundingOI struct {
	rateThreshold float64
	oiPctMin      float64
}

func (s *fundingOI) Name() string     { return "funding_oi" }
func (s *fundingOI) Exchange() string { return VenueHyperliquid }
func (s *fundingOI) Interval() string { return "1m" }

func (s *fundingOI) Evaluate(_ context.Context, snap *models.MarketSnapshot) (*models.Signal, error) {
	latest := latestFunding(snap)
	if latest == nil || !latest.OpenInterest.Valid {
		return nil, nil
	}

	rate := latest.FundingRate.InexactFloat64()
	if abs(rate) <= s.rateThreshold {
		return nil, nil
	}

	// Ratio of current OI to its maximum over the snapshot window, as
	// a percentage.
	maxOI := 0.0
	for i := range snap.Funding {
		if oi := snap.Funding[i].OpenInterest; oi.Valid {
			if v := oi.Decimal.InexactFloat64(); v > maxOI {
				maxOI = v
			}
		}
	}
	if maxOI <= 0 {
		return nil, nil
	}
	oiRatio := latest.OpenInterest.Decimal.InexactFloat64() / maxOI * 100
	if oiRatio < s.oiPctMin {
		return nil, nil
	}

	direction := models.DirectionShort
	if rate < 0 {
		direction = models.DirectionLong
	}

	entry, ok := fundingEntryPrice(latest, snap)
	if !ok {
		return nil, nil
	}

	return &models.Signal{
		TS:         snap.TS,
		Strategy:   s.Name(),
		Asset:      snap.Asset,
		Exchange:   s.Exchange(),
		Direction:  direction,
		Confidence: clamp01(abs(rate) / (2 * s.rateThreshold) * (oiRatio / 100)),
		EntryPrice: entry,
		Metadata: map[string]any{
			"funding_rate":   rate,
			"rate_threshold": s.rateThreshold,
			"oi_ratio":       oiRatio,
		},
	}, nil
}

func latestFunding(snap *models.MarketSnapshot) *models.FundingSnapshot {
	if len(snap.Funding) == 0 {
		return nil
	}
	return &snap.Funding[len(snap.Funding)-1]
}

// fundingEntryPrice prefers the venue's mark price and falls back to
// the last candle close.
func fundingEntryPrice(f *models.FundingSnapshot, snap *models.MarketSnapshot) (decimal.Decimal, bool) {
	if f.MarkPrice.Valid {
		return f.MarkPrice.Decimal, true
	}
	if len(snap.Candles) > 0 {
		return snap.Candles[len(snap.Candles)-1].Close, true
	}
	return decimal.Decimal{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
