package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradecore/tradecore/internal/models"
)

// metricsStore is the slice of the persistence layer the service reads
// from.
type metricsStore interface {
	ListClosedPositions(ctx context.Context, accountID int64, limit int) ([]models.Position, error)
	EquityCurve(ctx context.Context, accountID int64, since time.Time) ([]models.MarkToMarket, error)
}

// Performance is the computed statistics bundle for one account.
type Performance struct {
	AccountID      int64   `json:"account_id"`
	TotalTrades    int     `json:"total_trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	RealisedPnL    float64 `json:"realised_pnl"`
	ProfitFactor   float64 `json:"profit_factor"`
	Expectancy     float64 `json:"expectancy"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	AvgHoldMinutes float64 `json:"avg_hold_minutes"`
}

// Service computes account performance with a TTL cache in front.
type Service struct {
	store metricsStore
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewService creates a metrics service. cache may be nil to disable
// caching.
func NewService(store metricsStore, cache Cache, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{store: store, cache: cache, ttl: ttl, log: log}
}

// AccountPerformance returns the statistics for one account, serving
// from cache when a fresh entry exists.
func (s *Service) AccountPerformance(ctx context.Context, accountID int64) (*Performance, error) {
	key := fmt.Sprintf("metrics:account:%d", accountID)

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Metrics cache read failed")
		} else if ok {
			var perf Performance
			if err := json.Unmarshal(raw, &perf); err == nil {
				return &perf, nil
			}
		}
	}

	perf, err := s.compute(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(perf); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Metrics cache write failed")
			}
		}
	}
	return perf, nil
}

func (s *Service) compute(ctx context.Context, accountID int64) (*Performance, error) {
	closed, err := s.store.ListClosedPositions(ctx, accountID, 0)
	if err != nil {
		return nil, err
	}
	curve, err := s.store.EquityCurve(ctx, accountID, time.Time{})
	if err != nil {
		return nil, err
	}

	perf := &Performance{AccountID: accountID, TotalTrades: len(closed)}

	var pnls []float64
	var grossProfit, grossLoss, winSum, lossSum, holdMinutes float64
	for i := range closed {
		p := &closed[i]
		if !p.RealisedPnL.Valid {
			continue
		}
		pnl := p.RealisedPnL.Decimal.InexactFloat64()
		pnls = append(pnls, pnl)
		perf.RealisedPnL += pnl

		if pnl > 0 {
			perf.Wins++
			grossProfit += pnl
			winSum += pnl
		} else {
			perf.Losses++
			grossLoss += pnl
			lossSum += pnl
		}
		if p.ExitTS != nil {
			holdMinutes += p.ExitTS.Sub(p.EntryTS).Minutes()
		}
	}

	perf.WinRate = WinRate(perf.Wins, perf.TotalTrades)
	perf.ProfitFactor = ProfitFactor(grossProfit, grossLoss)
	if perf.TotalTrades > 0 {
		avgWin := 0.0
		if perf.Wins > 0 {
			avgWin = winSum / float64(perf.Wins)
		}
		avgLoss := 0.0
		if perf.Losses > 0 {
			avgLoss = lossSum / float64(perf.Losses)
		}
		perf.Expectancy = Expectancy(avgWin, avgLoss, float64(perf.Wins)/float64(perf.TotalTrades))
		perf.AvgHoldMinutes = holdMinutes / float64(perf.TotalTrades)
	}

	perf.SharpeRatio = SharpeRatio(pnls)
	perf.SortinoRatio = SortinoRatio(pnls)

	equity := make([]float64, len(curve))
	for i := range curve {
		equity[i] = curve[i].TotalEquity.InexactFloat64()
	}
	perf.MaxDrawdownPct = MaxDrawdownPct(equity)

	return perf, nil
}
