// Package telemetry holds the Prometheus instrumentation shared by
// the collector, orchestrator and paper engine processes.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// CandlesCollected counts stored OHLCV bars per venue and asset.
	CandlesCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_candles_collected_total",
		Help: "OHLCV bars written to storage",
	}, []string{"exchange", "asset"})

	// FundingSnapshots counts stored funding observations.
	FundingSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_funding_snapshots_total",
		Help: "Funding rate snapshots written to storage",
	}, []string{"asset"})

	// PolymarketSnapshots counts stored prediction market snapshots.
	PolymarketSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_polymarket_snapshots_total",
		Help: "Prediction market snapshots written to storage",
	}, []string{"asset"})

	// SignalsGenerated counts signals persisted by the orchestrator.
	SignalsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_signals_generated_total",
		Help: "Signals persisted by strategy evaluations",
	}, []string{"strategy", "asset", "direction"})

	// StrategyErrors counts strategy evaluations that returned an
	// error or panicked.
	StrategyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_strategy_errors_total",
		Help: "Failed strategy evaluations",
	}, []string{"strategy"})

	// StrategyEvalDuration observes strategy evaluation latency.
	StrategyEvalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trading_strategy_eval_seconds",
		Help:    "Strategy evaluation duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	// PositionsOpened counts paper positions opened.
	PositionsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_positions_opened_total",
		Help: "Paper positions opened",
	}, []string{"strategy", "direction"})

	// PositionsClosed counts paper positions closed, by exit reason.
	PositionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_positions_closed_total",
		Help: "Paper positions closed",
	}, []string{"strategy", "reason"})

	// RiskRejections counts signals rejected by the risk gates.
	RiskRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_risk_rejections_total",
		Help: "Signals rejected by risk checks",
	}, []string{"strategy", "reason"})

	// AccountEquity reports the latest marked equity per account.
	AccountEquity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trading_account_equity",
		Help: "Latest mark-to-market equity per account",
	}, []string{"account", "exchange", "strategy"})
)

// Serve exposes /metrics on the given port until ctx is cancelled.
func Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("Metrics server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
