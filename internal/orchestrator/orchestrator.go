// Package orchestrator drives the strategy evaluation loop: on every
// tick it snapshots market data per asset and runs each due strategy,
// persisting whatever signals come out.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradecore/tradecore/internal/models"
	"github.com/tradecore/tradecore/internal/strategy"
	"github.com/tradecore/tradecore/internal/telemetry"
)

// intervalSeconds maps strategy evaluation intervals to their length.
var intervalSeconds = map[string]int64{
	"1m":  60,
	"5m":  300,
	"10m": 600,
	"15m": 900,
	"1h":  3600,
}

// Orchestrator evaluates every enabled strategy against every
// configured asset, rate-limited per (strategy, asset) to the
// strategy's declared interval.
type Orchestrator struct {
	store          Store
	strategies     []strategy.Strategy
	assets         []string
	candleInterval string
	tick           time.Duration
	snapOpts       SnapshotOptions
	log            zerolog.Logger

	lastEval map[string]time.Time
	now      func() time.Time
}

// New creates an orchestrator over the given strategies and assets.
func New(store Store, strategies []strategy.Strategy, assets []string, candleInterval string, tick time.Duration, log zerolog.Logger) (*Orchestrator, error) {
	for _, s := range strategies {
		if _, ok := intervalSeconds[s.Interval()]; !ok {
			return nil, fmt.Errorf("strategy %s declares unsupported interval %q", s.Name(), s.Interval())
		}
	}
	return &Orchestrator{
		store:          store,
		strategies:     strategies,
		assets:         assets,
		candleInterval: candleInterval,
		tick:           tick,
		snapOpts:       DefaultSnapshotOptions(),
		log:            log,
		lastEval:       make(map[string]time.Time),
		now:            time.Now,
	}, nil
}

// WithSnapshotOptions overrides the snapshot lookbacks.
func (o *Orchestrator) WithSnapshotOptions(opts SnapshotOptions) *Orchestrator {
	o.snapOpts = opts
	return o
}

// Run ticks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info().
		Int("strategies", len(o.strategies)).
		Strs("assets", o.assets).
		Dur("tick", o.tick).
		Msg("Orchestrator started")

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.tickOnce(ctx)
		}
	}
}

// tickOnce builds one snapshot per asset and evaluates every due
// strategy against it.
func (o *Orchestrator) tickOnce(ctx context.Context) {
	now := o.now()

	for _, asset := range o.assets {
		var snap *models.MarketSnapshot

		for _, s := range o.strategies {
			if !o.due(s, asset, now) {
				continue
			}

			if snap == nil {
				var err error
				snap, err = BuildSnapshot(ctx, o.store, asset, o.candleInterval, now, o.snapOpts)
				if err != nil {
					o.log.Error().Err(err).Str("asset", asset).Msg("Snapshot build failed")
					break
				}
			}

			o.lastEval[evalKey(s.Name(), asset)] = now
			o.evaluate(ctx, s, snap)
		}
	}
}

// due applies the per-(strategy, asset) rate limit. The limiter is
// monotonic: it compares against the last evaluation start, so a slow
// evaluation never causes a double fire.
func (o *Orchestrator) due(s strategy.Strategy, asset string, now time.Time) bool {
	last, ok := o.lastEval[evalKey(s.Name(), asset)]
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(intervalSeconds[s.Interval()])*time.Second
}

func evalKey(name, asset string) string {
	return name + "|" + asset
}

// evaluate runs one strategy against one snapshot. Panics are
// contained: one broken strategy must not take down the loop.
func (o *Orchestrator) evaluate(ctx context.Context, s strategy.Strategy, snap *models.MarketSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.StrategyErrors.WithLabelValues(s.Name()).Inc()
			o.log.Error().
				Str("strategy", s.Name()).
				Str("asset", snap.Asset).
				Interface("panic", r).
				Msg("Strategy panicked")
		}
	}()

	start := time.Now()
	sig, err := s.Evaluate(ctx, snap)
	telemetry.StrategyEvalDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.StrategyErrors.WithLabelValues(s.Name()).Inc()
		o.log.Error().Err(err).
			Str("strategy", s.Name()).
			Str("asset", snap.Asset).
			Msg("Strategy evaluation failed")
		return
	}
	if sig == nil {
		return
	}

	if err := o.store.InsertSignal(ctx, sig); err != nil {
		o.log.Error().Err(err).
			Str("strategy", s.Name()).
			Str("asset", snap.Asset).
			Msg("Failed to persist signal")
		return
	}

	telemetry.SignalsGenerated.WithLabelValues(sig.Strategy, sig.Asset, string(sig.Direction)).Inc()
	o.log.Info().
		Int64("signal_id", sig.ID).
		Str("strategy", sig.Strategy).
		Str("asset", sig.Asset).
		Str("direction", string(sig.Direction)).
		Float64("confidence", sig.Confidence).
		Str("entry_price", sig.EntryPrice.String()).
		Msg("Signal generated")
}
