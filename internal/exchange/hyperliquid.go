// Package exchange implements the venue HTTP clients. Both clients
// wrap resty with retry, and the Hyperliquid client additionally sits
// behind a circuit breaker so a flapping venue cannot stall the
// collector loop.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/models"
)

// Circuit breaker thresholds for venue calls.
const (
	venueMinRequests     = 5
	venueFailureRatio    = 0.6
	venueOpenTimeout     = 30 * time.Second
	venueHalfOpenMaxReqs = 3
	venueCountInterval   = 10 * time.Second
)

// AssetContext is the per-asset slice of a metaAndAssetCtxs response.
type AssetContext struct {
	Asset        string
	FundingRate  decimal.Decimal
	OpenInterest decimal.NullDecimal
	MarkPrice    decimal.NullDecimal
}

// HyperliquidClient talks to the Hyperliquid info API.
type HyperliquidClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewHyperliquid creates a Hyperliquid client for the configured venue.
func NewHyperliquid(cfg config.VenueConfig, log zerolog.Logger) *HyperliquidClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hyperliquid",
		MaxRequests: venueHalfOpenMaxReqs,
		Interval:    venueCountInterval,
		Timeout:     venueOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= venueMinRequests && failureRatio >= venueFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &HyperliquidClient{
		http:    httpClient,
		breaker: breaker,
		log:     log,
	}
}

func (c *HyperliquidClient) post(ctx context.Context, body any) ([]byte, error) {
	raw, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			Post("/info")
		if err != nil {
			return nil, fmt.Errorf("info request: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("info request: status %d: %s", resp.StatusCode(), resp.String())
		}
		return resp.Body(), nil
	})
	if err != nil {
		return nil, err
	}
	return raw.([]byte), nil
}

// metaAndAssetCtxs responds with a two-element array: the asset
// universe and the per-asset contexts, index-aligned.
type hlMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type hlAssetCtx struct {
	Funding      string `json:"funding"`
	OpenInterest string `json:"openInterest"`
	MarkPx       string `json:"markPx"`
}

// MetaAndAssetCtxs returns funding, open interest and mark price for
// every listed perp.
func (c *HyperliquidClient) MetaAndAssetCtxs(ctx context.Context) ([]AssetContext, error) {
	body, err := c.post(ctx, map[string]string{"type": "metaAndAssetCtxs"})
	if err != nil {
		return nil, err
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("failed to parse metaAndAssetCtxs: %w", err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unexpected metaAndAssetCtxs shape: %d parts", len(parts))
	}

	var meta hlMeta
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return nil, fmt.Errorf("failed to parse universe: %w", err)
	}
	var ctxs []hlAssetCtx
	if err := json.Unmarshal(parts[1], &ctxs); err != nil {
		return nil, fmt.Errorf("failed to parse asset contexts: %w", err)
	}
	if len(ctxs) != len(meta.Universe) {
		return nil, fmt.Errorf("universe/context length mismatch: %d vs %d", len(meta.Universe), len(ctxs))
	}

	out := make([]AssetContext, 0, len(ctxs))
	for i, raw := range ctxs {
		ac := AssetContext{Asset: meta.Universe[i].Name}

		funding, err := decimal.NewFromString(raw.Funding)
		if err != nil {
			c.log.Debug().Str("asset", ac.Asset).Str("funding", raw.Funding).Msg("Skipping asset with unparseable funding")
			continue
		}
		ac.FundingRate = funding

		if oi, err := decimal.NewFromString(raw.OpenInterest); err == nil {
			ac.OpenInterest = decimal.NullDecimal{Decimal: oi, Valid: true}
		}
		if mark, err := decimal.NewFromString(raw.MarkPx); err == nil {
			ac.MarkPrice = decimal.NullDecimal{Decimal: mark, Valid: true}
		}

		out = append(out, ac)
	}
	return out, nil
}

type hlCandle struct {
	T int64  `json:"t"` // open time, ms
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V string `json:"v"`
}

// CandleSnapshot fetches OHLCV bars for one coin over [start, end].
func (c *HyperliquidClient) CandleSnapshot(ctx context.Context, coin, interval string, start, end time.Time) ([]models.Candle, error) {
	body, err := c.post(ctx, map[string]any{
		"type": "candleSnapshot",
		"req": map[string]any{
			"coin":      coin,
			"interval":  interval,
			"startTime": start.UnixMilli(),
			"endTime":   end.UnixMilli(),
		},
	})
	if err != nil {
		return nil, err
	}

	var raw []hlCandle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse candleSnapshot: %w", err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, rc := range raw {
		candle := models.Candle{
			Exchange: "hyperliquid",
			Asset:    coin,
			Interval: interval,
			OpenTime: time.UnixMilli(rc.T).UTC(),
		}
		var err error
		if candle.Open, err = decimal.NewFromString(rc.O); err != nil {
			continue
		}
		if candle.High, err = decimal.NewFromString(rc.H); err != nil {
			continue
		}
		if candle.Low, err = decimal.NewFromString(rc.L); err != nil {
			continue
		}
		if candle.Close, err = decimal.NewFromString(rc.C); err != nil {
			continue
		}
		if candle.Volume, err = decimal.NewFromString(rc.V); err != nil {
			continue
		}
		candles = append(candles, candle)
	}
	return candles, nil
}
