package strategy

// Docs describes a strategy for operators reading the API.
type Docs struct {
	Thesis string `json:"thesis"`
	Data   string `json:"data"`
	Risk   string `json:"risk"`
}

var docs = map[string]Docs{
	"contrarian_pure": {
		Thesis: "Prediction markets overprice near-certain outcomes; fade extreme yes prices.",
		Data:   "Polymarket yes/no prices, market end dates.",
		Risk:   "Crowded consensus is sometimes right; capped by min days-to-close filter.",
	},
	"contrarian_strength": {
		Thesis: "Same fade as contrarian_pure but only at stronger extremes.",
		Data:   "Polymarket yes/no prices, market end dates.",
		Risk:   "Fewer signals; an 0.80+ consensus that holds still loses.",
	},
	"funding_rate": {
		Thesis: "Extreme perp funding marks over-leveraged positioning; trade against it.",
		Data:   "Hyperliquid funding rate and mark price snapshots.",
		Risk:   "Funding can stay extreme through a trend; no positioning data.",
	},
	"funding_arb": {
		Thesis: "Milder funding skews mean-revert; harvest them at a lower threshold.",
		Data:   "Hyperliquid funding rate and mark price snapshots.",
		Risk:   "Thin edge per trade; fees and slippage dominate at this threshold.",
	},
	"funding_oi": {
		Thesis: "Extreme funding is most reliable when open interest is also near its recent high.",
		Data:   "Hyperliquid funding rate, open interest, mark price snapshots.",
		Risk:   "OI ratio is window-relative; a regime shift moves the baseline.",
	},
	"rsi_mean_reversion": {
		Thesis: "Short-horizon RSI extremes on perp candles revert.",
		Data:   "Hyperliquid OHLCV candles.",
		Risk:   "RSI pins at extremes in strong trends.",
	},
	"momentum_breakout": {
		Thesis: "Closes outside the Bollinger band on elevated volume continue.",
		Data:   "Hyperliquid OHLCV candles and volume.",
		Risk:   "Breakouts on thin volume confirmation still fail; whipsaw cost.",
	},
}

// Describe returns the documentation for a registered strategy.
func Describe(name string) (Docs, bool) {
	d, ok := docs[name]
	return d, ok
}
