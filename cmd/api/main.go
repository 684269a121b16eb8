// REST API server exposing accounts, positions, signals, performance
// and market data.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tradecore/tradecore/internal/api"
	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/db"
	"github.com/tradecore/tradecore/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	var cache metrics.Cache = metrics.NewMemoryCache()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = metrics.NewRedisCache(client)
		log.Info().Str("addr", cfg.Redis.GetRedisAddr()).Msg("Using Redis metrics cache")
	}

	perf := metrics.NewService(database, cache, cfg.Metrics.CacheTTL, config.NewLogger("metrics"))
	server := api.NewServer(database, perf, config.NewLogger("api"))

	if err := server.Run(ctx, cfg.API.GetAPIAddr()); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("API server exited with error")
	}
	log.Info().Msg("API server shutdown complete")
}
