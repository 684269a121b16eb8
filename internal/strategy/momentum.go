package strategy

import (
	"context"

	"github.com/tradecore/tradecore/internal/indicators"
	"github.com/tradecore/tradecore/internal/models"
)

func init() {
	Register("momentum_breakout", func(params Params) Strategy {
		return &momentumBreakout{
			bbPeriod:   params.Int("bb_period", 20),
			volPeriod:  params.Int("volume_period", 20),
			volumeMult: params.Float("volume_mult", 1.5),
		}
	})
}

// momentumBreakout goes with the move when price closes outside the
// Bollinger Bands on unusually high volume. Breakouts without the
// volume confirmation are ignored.
type momentumBreakout struct {
	bbPeriod   int
	volPeriod  int
	volumeMult float64
}

func (s *momentumBreakout) Name() string     { return "momentum_breakout" }
func (s *momentumBreakout) Exchange() string { return VenueHyperliquid }
func (s *momentumBreakout) Interval() string { return "5m" }

func (s *momentumBreakout) Evaluate(_ context.Context, snap *models.MarketSnapshot) (*models.Signal, error) {
	need := s.bbPeriod
	if s.volPeriod > need {
		need = s.volPeriod
	}
	if len(snap.Candles) < need {
		return nil, nil
	}

	closes := make([]float64, len(snap.Candles))
	volumes := make([]float64, len(snap.Candles))
	for i := range snap.Candles {
		closes[i] = snap.Candles[i].Close.InexactFloat64()
		volumes[i] = snap.Candles[i].Volume.InexactFloat64()
	}

	bb, err := indicators.Bollinger(closes, s.bbPeriod)
	if err != nil {
		return nil, err
	}
	volSMA, err := indicators.SMA(volumes, s.volPeriod)
	if err != nil {
		return nil, err
	}

	last := closes[len(closes)-1]
	lastVol := volumes[len(volumes)-1]
	if lastVol < volSMA*s.volumeMult {
		return nil, nil
	}

	var direction models.Direction
	var confidence float64
	halfWidth := bb.Upper - bb.Middle
	switch {
	case last > bb.Upper && halfWidth > 0:
		direction = models.DirectionLong
		confidence = (last - bb.Upper) / halfWidth
	case last < bb.Lower && halfWidth > 0:
		direction = models.DirectionShort
		confidence = (bb.Lower - last) / halfWidth
	default:
		return nil, nil
	}

	return &models.Signal{
		TS:         snap.TS,
		Strategy:   s.Name(),
		Asset:      snap.Asset,
		Exchange:   s.Exchange(),
		Direction:  direction,
		Confidence: clamp01(confidence),
		EntryPrice: snap.Candles[len(snap.Candles)-1].Close,
		Metadata: map[string]any{
			"bb_upper":    bb.Upper,
			"bb_middle":   bb.Middle,
			"bb_lower":    bb.Lower,
			"volume":      lastVol,
			"volume_sma":  volSMA,
			"volume_mult": s.volumeMult,
		},
	}, nil
}
