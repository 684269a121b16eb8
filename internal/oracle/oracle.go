// Package oracle serves current prices to the paper engines. Perp mid
// prices stream in over the Hyperliquid allMids websocket; prediction
// market prices come from the freshest stored snapshot. Every read is
// staleness-checked: a price past its threshold is never served.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/config"
)

// Price sources recorded on cache entries.
const (
	SourceWS = "ws"
	SourceDB = "db"
)

// YesPriceStore is the slice of the store the oracle needs for the
// prediction market fallback path.
type YesPriceStore interface {
	LatestYesPrice(ctx context.Context, asset string) (decimal.Decimal, time.Time, error)
}

type entry struct {
	price  decimal.Decimal
	ts     time.Time
	source string
}

// Oracle caches per-asset prices with independent staleness thresholds
// per venue.
type Oracle struct {
	log   zerolog.Logger
	store YesPriceStore

	wsURL          string
	tracked        map[string]struct{}
	hlStaleness    time.Duration
	pmStaleness    time.Duration
	reconnectDelay time.Duration

	mu sync.RWMutex
	hl map[string]entry
	pm map[string]entry

	now func() time.Time
}

// New creates an oracle that tracks the given perp assets; allMids
// symbols outside the list are dropped rather than cached. store may
// be nil when the prediction market fallback is not needed (tests,
// perp-only deployments).
func New(cfg config.OracleConfig, wsURL string, assets []string, store YesPriceStore) *Oracle {
	tracked := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		tracked[a] = struct{}{}
	}
	return &Oracle{
		log:            zerolog.Nop(),
		store:          store,
		wsURL:          wsURL,
		tracked:        tracked,
		hlStaleness:    cfg.HyperliquidStaleness,
		pmStaleness:    cfg.PolymarketStaleness,
		reconnectDelay: cfg.WSReconnectDelay,
		hl:             make(map[string]entry),
		pm:             make(map[string]entry),
		now:            time.Now,
	}
}

// WithLogger sets the oracle's logger.
func (o *Oracle) WithLogger(log zerolog.Logger) *Oracle {
	o.log = log
	return o
}

// Price returns the current price for (exchange, asset), or an error
// when no sufficiently fresh price exists.
func (o *Oracle) Price(ctx context.Context, exchange, asset string) (decimal.Decimal, error) {
	switch exchange {
	case "hyperliquid":
		return o.hlPrice(asset)
	case "polymarket":
		return o.pmPrice(ctx, asset)
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown exchange %q", exchange)
	}
}

func (o *Oracle) hlPrice(asset string) (decimal.Decimal, error) {
	o.mu.RLock()
	e, ok := o.hl[asset]
	o.mu.RUnlock()

	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no price for %s on hyperliquid", asset)
	}
	if o.now().Sub(e.ts) > o.hlStaleness {
		return decimal.Decimal{}, fmt.Errorf("price for %s on hyperliquid is stale (age %s)", asset, o.now().Sub(e.ts))
	}
	return e.price, nil
}

func (o *Oracle) pmPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	o.mu.RLock()
	e, ok := o.pm[asset]
	o.mu.RUnlock()

	if ok && o.now().Sub(e.ts) <= o.pmStaleness {
		return e.price, nil
	}

	if o.store == nil {
		return decimal.Decimal{}, fmt.Errorf("no price for %s on polymarket", asset)
	}

	price, _, err := o.store.LatestYesPrice(ctx, asset)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("no price for %s on polymarket: %w", asset, err)
	}

	o.mu.Lock()
	o.pm[asset] = entry{price: price, ts: o.now(), source: SourceDB}
	o.mu.Unlock()

	return price, nil
}

// SetMid records a fresh perp mid price. The entry is replaced whole;
// readers never observe a half-updated price/timestamp pair.
func (o *Oracle) SetMid(asset string, price decimal.Decimal) {
	o.mu.Lock()
	o.hl[asset] = entry{price: price, ts: o.now(), source: SourceWS}
	o.mu.Unlock()
}

// Run streams allMids updates into the cache until ctx is cancelled,
// reconnecting after transient failures.
func (o *Oracle) Run(ctx context.Context) error {
	for {
		if err := o.streamOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.log.Warn().Err(err).
				Dur("retry_in", o.reconnectDelay).
				Msg("allMids stream dropped, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.reconnectDelay):
		}
	}
}

type wsMessage struct {
	Channel string `json:"channel"`
	Data    struct {
		Mids map[string]string `json:"mids"`
	} `json:"data"`
}

func (o *Oracle) streamOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, o.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", o.wsURL, err)
	}
	defer conn.Close()

	sub := map[string]any{
		"method":       "subscribe",
		"subscription": map[string]string{"type": "allMids"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("failed to subscribe to allMids: %w", err)
	}

	o.log.Info().Str("url", o.wsURL).Msg("allMids stream connected")

	// Close the connection when ctx is cancelled to unblock ReadMessage.
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
			return fmt.Errorf("allMids read failed: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			o.log.Debug().Err(err).Msg("Skipping unparseable allMids message")
			continue
		}
		if msg.Channel != "allMids" {
			continue
		}

		o.applyMids(msg.Data.Mids)
	}
}

// applyMids caches the tracked subset of an allMids update. The feed
// carries every listed symbol; untracked ones would only bloat the
// cache.
func (o *Oracle) applyMids(mids map[string]string) {
	for asset, raw := range mids {
		if _, ok := o.tracked[asset]; !ok {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		o.SetMid(asset, price)
	}
}
