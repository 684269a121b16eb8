// Market data collector: streams and polls Hyperliquid candles and
// funding, and polls Polymarket crypto markets, persisting everything
// to Postgres.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tradecore/tradecore/internal/collector"
	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/db"
	"github.com/tradecore/tradecore/internal/exchange"
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

	log.Info().Str("environment", cfg.App.Environment).Msg("Starting market data collector")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	g, ctx := errgroup.WithContext(ctx)

	if hl, ok := cfg.Venues["hyperliquid"]; ok && hl.Enabled {
		client := exchange.NewHyperliquid(hl, config.NewLogger("hyperliquid-client"))
		hlCollector := collector.NewHyperliquid(client, database, hl, cfg.Collector, config.NewLogger("hyperliquid-collector"))
		g.Go(func() error { return hlCollector.Run(ctx) })
	}

	if pm, ok := cfg.Venues["polymarket"]; ok && pm.Enabled {
		client := exchange.NewPolymarket(pm, config.NewLogger("polymarket-client"))
		pmCollector := collector.NewPolymarket(client, database, pm, config.NewLogger("polymarket-collector"))
		g.Go(func() error { return pmCollector.Run(ctx) })
	}

	if cfg.Monitoring.EnableMetrics {
		g.Go(func() error { return telemetry.Serve(ctx, cfg.Monitoring.PrometheusPort) })
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Collector exited with error")
	}
	log.Info().Msg("Collector shutdown complete")
}
