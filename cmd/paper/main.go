// Paper trading engine: one simulated account per enabled strategy,
// consuming signals and managing positions against live oracle prices.
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
	"github.com/tradecore/tradecore/internal/oracle"
	"github.com/tradecore/tradecore/internal/paper"
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
		Float64("initial_capital", cfg.Paper.InitialCapital).
		Msg("Starting paper trading engine")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	hl := cfg.Venues["hyperliquid"]
	prices := oracle.New(cfg.Oracle, hl.WSURL, hl.Assets, database).
		WithLogger(config.NewLogger("oracle"))

	engines, err := paper.Bootstrap(ctx, database, cfg.Strategies.Enabled, cfg.Strategies.Params, cfg.Paper, prices, config.NewLogger("paper"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap paper accounts")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return prices.Run(ctx) })
	g.Go(func() error { return paper.RunAll(ctx, engines) })
	if cfg.Monitoring.EnableMetrics {
		g.Go(func() error { return telemetry.Serve(ctx, cfg.Monitoring.PrometheusPort) })
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Paper engine exited with error")
	}
	log.Info().Msg("Paper engine shutdown complete")
}
