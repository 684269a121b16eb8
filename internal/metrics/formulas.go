// Package metrics computes per-account and per-group performance
// statistics from closed positions and equity curves, with a TTL cache
// in front of the heavier queries.
package metrics

import "math"

// Annualization factor for daily-granularity return series.
const annualization = 252

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (ddof=1).
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// SharpeRatio is the annualized mean/volatility ratio of a return
// series. Returns 0 when the series is too short or flat.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(annualization)
}

// SortinoRatio is like Sharpe but penalizes only downside deviation.
func SortinoRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sd := stddev(downside)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(annualization)
}

// MaxDrawdownPct is the largest peak-to-trough equity decline, as a
// percentage in [0, 100].
func MaxDrawdownPct(equity []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// WinRate is the winning-trade percentage in [0, 100].
func WinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// ProfitFactor is gross profit over gross loss. With no losses it
// returns 0: the ratio is undefined and the caller has win rate to
// lean on.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		return 0
	}
	return grossProfit / math.Abs(grossLoss)
}

// Expectancy is the expected PnL per trade given average win, average
// loss and the win rate as a fraction in [0, 1].
func Expectancy(avgWin, avgLoss, winRate float64) float64 {
	return winRate*avgWin - (1-winRate)*math.Abs(avgLoss)
}
