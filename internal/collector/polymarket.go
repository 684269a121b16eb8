package collector

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/exchange"
	"github.com/tradecore/tradecore/internal/models"
	"github.com/tradecore/tradecore/internal/telemetry"
)

// Market titles are truncated to fit the column.
const maxTitleLen = 500

type polymarketStore interface {
	UpsertPolymarketMarket(ctx context.Context, m *models.PolymarketMarket) error
}

type marketLister interface {
	ListActiveMarkets(ctx context.Context) ([]exchange.RawMarket, error)
}

// PolymarketCollector polls the market list and stores a snapshot of
// every crypto-classifiable market.
type PolymarketCollector struct {
	client marketLister
	store  polymarketStore
	venue  config.VenueConfig
	log    zerolog.Logger
}

// NewPolymarket creates the Polymarket collector.
func NewPolymarket(client marketLister, store polymarketStore, venue config.VenueConfig, log zerolog.Logger) *PolymarketCollector {
	return &PolymarketCollector{
		client: client,
		store:  store,
		venue:  venue,
		log:    log,
	}
}

// Run polls until ctx is cancelled. The first poll happens
// immediately.
func (c *PolymarketCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.venue.PollInterval)
	defer ticker.Stop()

	for {
		if err := c.pollOnce(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Polymarket poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *PolymarketCollector) pollOnce(ctx context.Context) error {
	raw, err := c.client.ListActiveMarkets(ctx)
	if err != nil {
		return err
	}

	observations := ExtractObservations(raw, time.Now().UTC())
	for i := range observations {
		if err := c.store.UpsertPolymarketMarket(ctx, &observations[i]); err != nil {
			c.log.Error().Err(err).Str("market_id", observations[i].MarketID).Msg("Failed to store market snapshot")
			continue
		}
		telemetry.PolymarketSnapshots.WithLabelValues(observations[i].Asset).Inc()
	}

	c.log.Info().
		Int("markets_seen", len(raw)).
		Int("markets_stored", len(observations)).
		Msg("Polymarket poll complete")
	return nil
}

// ExtractObservations converts raw API markets into stored snapshots,
// dropping markets that cannot be attributed to a tracked asset.
func ExtractObservations(raw []exchange.RawMarket, now time.Time) []models.PolymarketMarket {
	var out []models.PolymarketMarket
	for i := range raw {
		m := &raw[i]
		asset, ok := ClassifyAsset(m.Question)
		if !ok {
			continue
		}

		obs := models.PolymarketMarket{
			MarketID:    m.ID,
			MarketTitle: truncate(m.Question, maxTitleLen),
			Asset:       asset,
			TS:          now,
		}

		if yes, no, ok := parseOutcomePrices(m.OutcomePrices); ok {
			obs.YesPrice = decimal.NullDecimal{Decimal: yes, Valid: true}
			obs.NoPrice = decimal.NullDecimal{Decimal: no, Valid: true}
		}
		if m.Volume24hr > 0 {
			obs.Volume24h = decimal.NullDecimal{Decimal: decimal.NewFromFloat(m.Volume24hr), Valid: true}
		}
		if liq, err := decimal.NewFromString(m.Liquidity); err == nil {
			obs.Liquidity = decimal.NullDecimal{Decimal: liq, Valid: true}
		}
		if end, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
			end = end.UTC()
			obs.EndDate = &end
		}

		out = append(out, obs)
	}
	return out
}

// ClassifyAsset maps a market question to a tracked asset symbol.
func ClassifyAsset(question string) (string, bool) {
	q := strings.ToUpper(question)
	switch {
	case strings.Contains(q, "BTC") || strings.Contains(q, "BITCOIN"):
		return "BTC", true
	case strings.Contains(q, "ETH") || strings.Contains(q, "ETHEREUM"):
		return "ETH", true
	case strings.Contains(q, "SOL") || strings.Contains(q, "SOLANA"):
		return "SOL", true
	}
	return "", false
}

// parseOutcomePrices handles both encodings of the outcomePrices
// field: a JSON array of strings, or a string containing that array.
func parseOutcomePrices(raw json.RawMessage) (yes, no decimal.Decimal, ok bool) {
	if len(raw) == 0 {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}

	var prices []string
	if err := json.Unmarshal(raw, &prices); err != nil {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, false
		}
		if err := json.Unmarshal([]byte(inner), &prices); err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, false
		}
	}
	if len(prices) < 2 {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}

	yes, err := decimal.NewFromString(prices[0])
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	no, err = decimal.NewFromString(prices[1])
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return yes, no, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
