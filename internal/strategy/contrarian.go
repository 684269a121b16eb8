package strategy

import (
	"context"
	"time"

	"github.com/tradecore/tradecore/internal/models"
)

func init() {
	Register("contrarian_pure", func(params Params) Strategy {
		return &contrarian{
			name:           "contrarian_pure",
			yesThreshold:   params.Float("yes_threshold", 0.72),
			minDaysToClose: params.Int("min_days_to_close", 7),
		}
	})
	Register("contrarian_strength", func(params Params) Strategy {
		return &contrarian{
			name:           "contrarian_strength",
			yesThreshold:   params.Float("yes_threshold", 0.80),
			minDaysToClose: params.Int("min_days_to_close", 7),
		}
	})
}

// contrarian fades extreme consensus on prediction markets: when the
// crowd prices YES above the threshold, bet NO; when it prices YES
// below the mirrored threshold, bet YES. The two registered variants
// differ only in how extreme the consensus must be.
type contrarian struct {
	name           string
	yesThreshold   float64
	minDaysToClose int
}

func (s *contrarian) Name() string     { return s.name }
func (s *contrarian) Exchange() string { return VenuePolymarket }
func (s *contrarian) Interval() string { return "10m" }

func (s *contrarian) Evaluate(_ context.Context, snap *models.MarketSnapshot) (*models.Signal, error) {
	var best *models.PolymarketMarket
	var bestConf float64
	var bestDir models.Direction

	minClose := snap.TS.Add(time.Duration(s.minDaysToClose) * 24 * time.Hour)

	for i := range snap.Polymarket {
		m := &snap.Polymarket[i]
		if !m.YesPrice.Valid {
			continue
		}
		// Markets near resolution price in the outcome, not the
		// crowd's bias; skip them. A market without an end date cannot
		// be near resolution.
		if m.EndDate != nil && m.EndDate.Before(minClose) {
			continue
		}

		yes := m.YesPrice.Decimal.InexactFloat64()
		low := 1 - s.yesThreshold

		var conf float64
		var dir models.Direction
		switch {
		case yes > s.yesThreshold:
			dir = models.DirectionShort
			conf = clamp01((yes - s.yesThreshold) / (1 - s.yesThreshold))
		case yes < low:
			dir = models.DirectionLong
			conf = clamp01((low - yes) / low)
		default:
			continue
		}

		if conf > bestConf {
			bestConf = conf
			bestDir = dir
			best = m
		}
	}

	if best == nil {
		return nil, nil
	}

	return &models.Signal{
		TS:         snap.TS,
		Strategy:   s.name,
		Asset:      snap.Asset,
		Exchange:   s.Exchange(),
		Direction:  bestDir,
		Confidence: bestConf,
		EntryPrice: best.YesPrice.Decimal,
		Metadata: map[string]any{
			"market_id":     best.MarketID,
			"market_title":  best.MarketTitle,
			"yes_price":     best.YesPrice.Decimal.InexactFloat64(),
			"yes_threshold": s.yesThreshold,
		},
	}, nil
}
