package strategy

import (
	"context"

	"github.com/tradecore/tradecore/internal/indicators"
	"github.com/tradecore/tradecore/internal/models"
)

func init() {
	Register("rsi_mean_reversion", func(params Params) Strategy {
		return &rsiMeanReversion{
			period:     params.Int("period", 14),
			overbought: params.Float("overbought", 75),
			oversold:   params.Float("oversold", 25),
		}
	})
}

// rsiMeanReversion fades RSI extremes: short overbought, long
// oversold.
type rsiMeanReversion struct {
	period     int
	overbought float64
	oversold   float64
}

func (s *rsiMeanReversion) Name() string     { return "rsi_mean_reversion" }
func (s *rsiMeanReversion) Exchange() string { return VenueHyperliquid }
func (s *rsiMeanReversion) Interval() string { return "5m" }

func (s *rsiMeanReversion) Evaluate(_ context.Context, snap *models.MarketSnapshot) (*models.Signal, error) {
	if len(snap.Candles) < s.period+1 {
		return nil, nil
	}

	closes := make([]float64, len(snap.Candles))
	for i := range snap.Candles {
		closes[i] = snap.Candles[i].Close.InexactFloat64()
	}

	rsi, err := indicators.RSI(closes, s.period)
	if err != nil {
		return nil, err
	}

	var direction models.Direction
	var confidence float64
	switch {
	case rsi > s.overbought:
		direction = models.DirectionShort
		confidence = (rsi - s.overbought) / (100 - s.overbought)
	case rsi < s.oversold:
		direction = models.DirectionLong
		confidence = (s.oversold - rsi) / s.oversold
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
			"rsi":        rsi,
			"period":     s.period,
			"overbought": s.overbought,
			"oversold":   s.oversold,
		},
	}, nil
}
