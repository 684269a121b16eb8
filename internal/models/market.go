// Package models defines the shared domain types passed between the
// collectors, the strategy layer, and the paper engine. All monetary
// values are arbitrary-precision decimals.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar. Immutable once written by a collector.
type Candle struct {
	Exchange string          `json:"exchange"`
	Asset    string          `json:"asset"`
	Interval string          `json:"interval"`
	OpenTime time.Time       `json:"open_time"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
}

// FundingSnapshot is a point-in-time funding rate observation for a
// perpetual contract. OpenInterest and MarkPrice are optional because
// the venue does not always report them.
type FundingSnapshot struct {
	Exchange     string              `json:"exchange"`
	Asset        string              `json:"asset"`
	TS           time.Time           `json:"ts"`
	FundingRate  decimal.Decimal     `json:"funding_rate"`
	OpenInterest decimal.NullDecimal `json:"open_interest"`
	MarkPrice    decimal.NullDecimal `json:"mark_price"`
}

// PolymarketMarket is a snapshot of a binary prediction market at a
// point in time. YesPrice in [0, 1] is the crowd's probability estimate.
type PolymarketMarket struct {
	MarketID    string              `json:"market_id"`
	MarketTitle string              `json:"market_title"`
	Asset       string              `json:"asset"`
	TS          time.Time           `json:"ts"`
	YesPrice    decimal.NullDecimal `json:"yes_price"`
	NoPrice     decimal.NullDecimal `json:"no_price"`
	Volume24h   decimal.NullDecimal `json:"volume_24h"`
	Liquidity   decimal.NullDecimal `json:"liquidity"`
	EndDate     *time.Time          `json:"end_date,omitempty"`
}

// MarketSnapshot is the pre-fetched bundle of market data for one asset
// that strategies evaluate. Slices are ordered oldest-first.
type MarketSnapshot struct {
	Asset      string             `json:"asset"`
	TS         time.Time          `json:"ts"`
	Candles    []Candle           `json:"candles"`
	Funding    []FundingSnapshot  `json:"funding"`
	Polymarket []PolymarketMarket `json:"polymarket"`
}
