// Package collector runs the per-venue data collection loops that keep
// the market data schema current.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/exchange"
	"github.com/tradecore/tradecore/internal/models"
	"github.com/tradecore/tradecore/internal/telemetry"
)

// hyperliquidStore is the slice of the store this collector writes to.
type hyperliquidStore interface {
	UpsertCandle(ctx context.Context, c *models.Candle) error
	UpsertCandles(ctx context.Context, candles []models.Candle) error
	InsertFundingSnapshot(ctx context.Context, s *models.FundingSnapshot) error
}

// HyperliquidCollector polls funding and candles for the configured
// assets, backfills candle history on startup, and optionally streams
// live candles over the venue websocket.
type HyperliquidCollector struct {
	client       *exchange.HyperliquidClient
	store        hyperliquidStore
	venue        config.VenueConfig
	backfillBars int
	enableWS     bool
	reconnect    time.Duration
	log          zerolog.Logger
}

// NewHyperliquid creates the Hyperliquid collector.
func NewHyperliquid(client *exchange.HyperliquidClient, store hyperliquidStore, venue config.VenueConfig, cfg config.CollectorConfig, log zerolog.Logger) *HyperliquidCollector {
	return &HyperliquidCollector{
		client:       client,
		store:        store,
		venue:        venue,
		backfillBars: cfg.BackfillBars,
		enableWS:     cfg.EnableWS,
		reconnect:    5 * time.Second,
		log:          log,
	}
}

// Run backfills history, then runs the polling loops (and the websocket
// stream when enabled) until ctx is cancelled.
func (c *HyperliquidCollector) Run(ctx context.Context) error {
	if err := c.Backfill(ctx); err != nil {
		// Backfill failures are not fatal: the poll loops fill the gap
		// forward from now.
		c.log.Error().Err(err).Msg("Candle backfill failed")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.pollFunding(ctx) })
	g.Go(func() error { return c.pollCandles(ctx) })
	if c.enableWS && c.venue.WSURL != "" {
		g.Go(func() error { return c.streamCandles(ctx) })
	}
	return g.Wait()
}

// Backfill fetches recent candle history for every configured asset.
func (c *HyperliquidCollector) Backfill(ctx context.Context) error {
	barLen, err := intervalDuration(c.venue.Interval)
	if err != nil {
		return err
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(c.backfillBars) * barLen)

	for _, asset := range c.venue.Assets {
		candles, err := c.client.CandleSnapshot(ctx, asset, c.venue.Interval, start, end)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", asset, err)
		}
		if err := c.store.UpsertCandles(ctx, candles); err != nil {
			return fmt.Errorf("backfill %s: %w", asset, err)
		}
		telemetry.CandlesCollected.WithLabelValues("hyperliquid", asset).Add(float64(len(candles)))
		c.log.Info().Str("asset", asset).Int("candles", len(candles)).Msg("Backfilled candle history")
	}
	return nil
}

func (c *HyperliquidCollector) pollFunding(ctx context.Context) error {
	ticker := time.NewTicker(c.venue.PollInterval)
	defer ticker.Stop()

	assets := make(map[string]bool, len(c.venue.Assets))
	for _, a := range c.venue.Assets {
		assets[a] = true
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		ctxs, err := c.client.MetaAndAssetCtxs(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("Funding poll failed")
			continue
		}

		now := time.Now().UTC()
		for _, ac := range ctxs {
			if !assets[ac.Asset] {
				continue
			}
			snap := models.FundingSnapshot{
				Exchange:     "hyperliquid",
				Asset:        ac.Asset,
				TS:           now,
				FundingRate:  ac.FundingRate,
				OpenInterest: ac.OpenInterest,
				MarkPrice:    ac.MarkPrice,
			}
			if err := c.store.InsertFundingSnapshot(ctx, &snap); err != nil {
				c.log.Error().Err(err).Str("asset", ac.Asset).Msg("Failed to store funding snapshot")
				continue
			}
			telemetry.FundingSnapshots.WithLabelValues(ac.Asset).Inc()
		}
	}
}

// pollCandles re-fetches the last two bars each period so the open bar
// converges even without the websocket stream.
func (c *HyperliquidCollector) pollCandles(ctx context.Context) error {
	barLen, err := intervalDuration(c.venue.Interval)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(barLen)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		end := time.Now().UTC()
		start := end.Add(-2 * barLen)
		for _, asset := range c.venue.Assets {
			candles, err := c.client.CandleSnapshot(ctx, asset, c.venue.Interval, start, end)
			if err != nil {
				c.log.Warn().Err(err).Str("asset", asset).Msg("Candle poll failed")
				continue
			}
			if err := c.store.UpsertCandles(ctx, candles); err != nil {
				c.log.Error().Err(err).Str("asset", asset).Msg("Failed to store candles")
				continue
			}
			telemetry.CandlesCollected.WithLabelValues("hyperliquid", asset).Add(float64(len(candles)))
		}
	}
}

type wsCandleMessage struct {
	Channel string `json:"channel"`
	Data    struct {
		T int64  `json:"t"`
		S string `json:"s"` // coin
		I string `json:"i"` // interval
		O string `json:"o"`
		H string `json:"h"`
		L string `json:"l"`
		C string `json:"c"`
		V string `json:"v"`
	} `json:"data"`
}

func (c *HyperliquidCollector) streamCandles(ctx context.Context) error {
	for {
		if err := c.streamOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Dur("retry_in", c.reconnect).Msg("Candle stream dropped, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnect):
		}
	}
}

func (c *HyperliquidCollector) streamOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.venue.WSURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.venue.WSURL, err)
	}
	defer conn.Close()

	for _, asset := range c.venue.Assets {
		sub := map[string]any{
			"method": "subscribe",
			"subscription": map[string]string{
				"type":     "candle",
				"coin":     asset,
				"interval": c.venue.Interval,
			},
		}
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("failed to subscribe to %s candles: %w", asset, err)
		}
	}

	c.log.Info().Str("url", c.venue.WSURL).Msg("Candle stream connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("candle stream read failed: %w", err)
		}

		var msg wsCandleMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Channel != "candle" {
			continue
		}

		candle, ok := parseWSCandle(&msg)
		if !ok {
			continue
		}
		if err := c.store.UpsertCandle(ctx, &candle); err != nil {
			c.log.Error().Err(err).Str("asset", candle.Asset).Msg("Failed to store streamed candle")
			continue
		}
		telemetry.CandlesCollected.WithLabelValues("hyperliquid", candle.Asset).Inc()
	}
}

func parseWSCandle(msg *wsCandleMessage) (models.Candle, bool) {
	candle := models.Candle{
		Exchange: "hyperliquid",
		Asset:    msg.Data.S,
		Interval: msg.Data.I,
		OpenTime: time.UnixMilli(msg.Data.T).UTC(),
	}
	var err error
	if candle.Open, err = decimal.NewFromString(msg.Data.O); err != nil {
		return models.Candle{}, false
	}
	if candle.High, err = decimal.NewFromString(msg.Data.H); err != nil {
		return models.Candle{}, false
	}
	if candle.Low, err = decimal.NewFromString(msg.Data.L); err != nil {
		return models.Candle{}, false
	}
	if candle.Close, err = decimal.NewFromString(msg.Data.C); err != nil {
		return models.Candle{}, false
	}
	if candle.Volume, err = decimal.NewFromString(msg.Data.V); err != nil {
		return models.Candle{}, false
	}
	return candle, true
}

// intervalDuration maps the supported candle interval names to their
// lengths.
func intervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "10m":
		return 10 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported candle interval %q", interval)
	}
}
