// Strategy orchestrator: evaluates every enabled strategy against the
// latest market snapshots and persists the signals they emit.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/db"
	"github.com/tradecore/tradecore/internal/orchestrator"
	"github.com/tradecore/tradecore/internal/strategy"
	"github.com/tradecore/tradecore/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	log.Info().
		Strs("strategies", cfg.Strategies.Enabled).
		Dur("tick", cfg.Strategies.Tick).
		Msg("Starting strategy orchestrator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	strategies := make([]strategy.Strategy, 0, len(cfg.Strategies.Enabled))
	for _, name := range cfg.Strategies.Enabled {
		strat, err := strategy.New(name, cfg.Strategies.Params[name])
		if err != nil {
			log.Fatal().Err(err).Str("strategy", name).Msg("Failed to build strategy")
		}
		strategies = append(strategies, strat)
	}

	hl := cfg.Venues["hyperliquid"]
	orch, err := orchestrator.New(database, strategies, hl.Assets, hl.Interval, cfg.Strategies.Tick, config.NewLogger("orchestrator"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create orchestrator")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(ctx) })
	if cfg.Monitoring.EnableMetrics {
		g.Go(func() error { return telemetry.Serve(ctx, cfg.Monitoring.PrometheusPort) })
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Orchestrator exited with error")
	}
	log.Info().Msg("Orchestrator shutdown complete")
}
