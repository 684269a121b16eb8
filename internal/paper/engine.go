// Package paper runs the simulated execution engines. One engine per
// active account: it consumes that account's signals, applies the risk
// gates, opens slippage-adjusted positions, manages exits, and writes
// mark-to-market snapshots.
package paper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/models"
	"github.com/tradecore/tradecore/internal/telemetry"
)

// How many signals one engine claims per poll.
const consumeBatch = 10

// Store is what the engine needs from the persistence layer.
type Store interface {
	riskStore
	ConsumeSignals(ctx context.Context, exchange, strategy string, limit int) ([]models.Signal, error)
	OpenPosition(ctx context.Context, p *models.Position) error
	ClosePosition(ctx context.Context, id int64, exitPrice decimal.Decimal, exitTS time.Time, exitReason string, realisedPnL decimal.Decimal, metadata map[string]any) error
	ListOpenPositions(ctx context.Context, accountID int64) ([]models.Position, error)
	InsertMarkToMarket(ctx context.Context, m *models.MarkToMarket) error
}

// PriceSource serves current prices; stale prices come back as errors.
type PriceSource interface {
	Price(ctx context.Context, exchange, asset string) (decimal.Decimal, error)
}

// Engine is the paper execution loop for one account.
type Engine struct {
	account *models.Account
	store   Store
	prices  PriceSource
	cfg     config.PaperConfig
	risk    *RiskManager
	sizer   *Sizer
	log     zerolog.Logger
	now     func() time.Time

	// Cost parameters resolved for the account's venue at
	// construction time.
	slippagePct float64
	feePct      float64
}

// NewEngine creates an engine for one account.
func NewEngine(account *models.Account, store Store, prices PriceSource, cfg config.PaperConfig, log zerolog.Logger) *Engine {
	return &Engine{
		account:     account,
		store:       store,
		prices:      prices,
		cfg:         cfg,
		risk:        NewRiskManager(cfg, store),
		sizer:       NewSizer(cfg),
		log:         log,
		now:         time.Now,
		slippagePct: cfg.VenueSlippage(account.Exchange),
		feePct:      cfg.VenueFee(account.Exchange),
	}
}

// Run polls for signals and exits, and marks the account to market,
// until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	poll := time.NewTicker(e.cfg.PollInterval)
	defer poll.Stop()
	mtm := time.NewTicker(e.cfg.MarkToMarketEvery)
	defer mtm.Stop()

	e.log.Info().Msg("Paper engine started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			e.Step(ctx)
		case <-mtm.C:
			if err := e.MarkToMarket(ctx); err != nil {
				e.log.Error().Err(err).Msg("Mark-to-market failed")
			}
		}
	}
}

// Step runs one engine iteration: manage exits first so freed capacity
// is visible to the entry path, then consume new signals.
func (e *Engine) Step(ctx context.Context) {
	if err := e.ManagePositions(ctx); err != nil {
		e.log.Error().Err(err).Msg("Position management failed")
	}
	if err := e.ProcessSignals(ctx); err != nil {
		e.log.Error().Err(err).Msg("Signal processing failed")
	}
}

// ProcessSignals claims this account's pending signals and opens
// positions for those that clear the risk gates. A rejected signal
// stays consumed: risk rejection is a decision, not a retry.
func (e *Engine) ProcessSignals(ctx context.Context) error {
	signals, err := e.store.ConsumeSignals(ctx, e.account.Exchange, e.account.Strategy, consumeBatch)
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		return nil
	}

	for i := range signals {
		sig := &signals[i]

		// Entries fill at the oracle price, not the price the signal
		// was generated at. No fresh price means no fill.
		price, err := e.prices.Price(ctx, sig.Exchange, sig.Asset)
		if err != nil {
			e.log.Warn().Err(err).
				Int64("signal_id", sig.ID).
				Str("asset", sig.Asset).
				Msg("No fresh price for signal, skipping")
			continue
		}

		open, err := e.store.ListOpenPositions(ctx, e.account.ID)
		if err != nil {
			return err
		}
		equity, err := e.equity(ctx, open)
		if err != nil {
			return err
		}

		entry := e.entryPrice(price, sig.Direction)
		qty := e.sizer.Quantity(equity, sig.Confidence, entry)
		if qty.Sign() <= 0 {
			e.log.Warn().Int64("signal_id", sig.ID).Msg("Computed zero position size, skipping")
			continue
		}

		reason, ok, err := e.risk.Check(ctx, e.account, equity, entry.Mul(qty), open)
		if err != nil {
			return err
		}
		if !ok {
			telemetry.RiskRejections.WithLabelValues(sig.Strategy, reason).Inc()
			e.log.Warn().
				Int64("signal_id", sig.ID).
				Str("asset", sig.Asset).
				Str("reason", reason).
				Msg("Signal rejected by risk check")
			continue
		}

		if err := e.openPosition(ctx, sig, price, entry, qty); err != nil {
			e.log.Error().Err(err).Int64("signal_id", sig.ID).Msg("Failed to open position")
		}
	}
	return nil
}

// entryPrice applies entry slippage against the trade: longs buy
// higher, shorts sell lower.
func (e *Engine) entryPrice(price decimal.Decimal, direction models.Direction) decimal.Decimal {
	slip := decimal.NewFromFloat(e.slippagePct)
	one := decimal.NewFromInt(1)
	if direction == models.DirectionShort {
		return price.Mul(one.Sub(slip))
	}
	return price.Mul(one.Add(slip))
}

// openPosition persists a sized, slippage-adjusted entry.
func (e *Engine) openPosition(ctx context.Context, sig *models.Signal, rawPrice, entry, qty decimal.Decimal) error {
	sigID := sig.ID
	pos := &models.Position{
		AccountID:  e.account.ID,
		Strategy:   sig.Strategy,
		Asset:      sig.Asset,
		Exchange:   sig.Exchange,
		Direction:  sig.Direction,
		EntryPrice: entry,
		EntryTS:    e.now().UTC(),
		Quantity:   qty,
		SignalID:   &sigID,
		Metadata: map[string]any{
			"raw_entry_price": rawPrice.String(),
			"slippage_pct":    e.slippagePct,
			"confidence":      sig.Confidence,
		},
	}

	if err := e.store.OpenPosition(ctx, pos); err != nil {
		return err
	}

	telemetry.PositionsOpened.WithLabelValues(pos.Strategy, string(pos.Direction)).Inc()
	e.log.Info().
		Int64("position_id", pos.ID).
		Str("asset", pos.Asset).
		Str("direction", string(pos.Direction)).
		Str("entry_price", entry.String()).
		Str("quantity", qty.String()).
		Msg("Position opened")
	return nil
}

// ManagePositions checks every open position against its exit rules:
// stop loss, then take profit, then timeout. Positions whose price is
// stale are left alone until a fresh price arrives.
func (e *Engine) ManagePositions(ctx context.Context) error {
	open, err := e.store.ListOpenPositions(ctx, e.account.ID)
	if err != nil {
		return err
	}

	now := e.now().UTC()
	for i := range open {
		pos := &open[i]

		price, err := e.prices.Price(ctx, pos.Exchange, pos.Asset)
		if err != nil {
			e.log.Debug().Err(err).Int64("position_id", pos.ID).Msg("No fresh price, skipping exit checks")
			continue
		}

		move := pos.Direction.Sign().Mul(price.Sub(pos.EntryPrice)).Div(pos.EntryPrice)

		var reason string
		switch {
		case move.LessThanOrEqual(decimal.NewFromFloat(-e.cfg.StopLossPct)):
			reason = models.ExitStopLoss
		case move.GreaterThanOrEqual(decimal.NewFromFloat(e.cfg.TakeProfitPct)):
			reason = models.ExitTakeProfit
		case now.Sub(pos.EntryTS) >= e.cfg.PositionTimeout:
			reason = models.ExitTimeout
		default:
			continue
		}

		if err := e.closePosition(ctx, pos, price, now, reason); err != nil {
			e.log.Error().Err(err).Int64("position_id", pos.ID).Msg("Failed to close position")
		}
	}
	return nil
}

// closePosition applies exit slippage and fees and persists the close
// along with its cost breakdown.
func (e *Engine) closePosition(ctx context.Context, pos *models.Position, price decimal.Decimal, now time.Time, reason string) error {
	slip := decimal.NewFromFloat(e.slippagePct)
	one := decimal.NewFromInt(1)

	// Exit slippage mirrors entry: longs sell lower, shorts buy
	// higher.
	exit := price.Mul(one.Sub(slip))
	if pos.Direction == models.DirectionShort {
		exit = price.Mul(one.Add(slip))
	}

	entryNotional := pos.EntryPrice.Mul(pos.Quantity)
	exitNotional := exit.Mul(pos.Quantity)
	fees := entryNotional.Add(exitNotional).Mul(decimal.NewFromFloat(e.feePct))

	gross := pos.Direction.Sign().Mul(exit.Sub(pos.EntryPrice)).Mul(pos.Quantity)
	pnl := gross.Sub(fees)

	metadata := map[string]any{
		"raw_exit_price":    price.String(),
		"exit_slippage_pct": e.slippagePct,
		"fees":              fees.String(),
		"gross_pnl":         gross.String(),
	}

	if err := e.store.ClosePosition(ctx, pos.ID, exit, now, reason, pnl, metadata); err != nil {
		return err
	}

	telemetry.PositionsClosed.WithLabelValues(pos.Strategy, reason).Inc()
	e.log.Info().
		Int64("position_id", pos.ID).
		Str("asset", pos.Asset).
		Str("reason", reason).
		Str("exit_price", exit.String()).
		Str("realised_pnl", pnl.String()).
		Msg("Position closed")
	return nil
}

// equity is initial capital plus all realised PnL plus the unrealised
// PnL of open positions. Open positions without a fresh price
// contribute zero unrealised PnL.
func (e *Engine) equity(ctx context.Context, open []models.Position) (decimal.Decimal, error) {
	realised, err := e.store.RealisedPnLSince(ctx, e.account.ID, time.Time{})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return e.account.InitialCapital.Add(realised).Add(e.unrealised(ctx, open)), nil
}

// unrealised values open positions net of the round-trip fees an exit
// at the current price would incur.
func (e *Engine) unrealised(ctx context.Context, open []models.Position) decimal.Decimal {
	feePct := decimal.NewFromFloat(e.feePct)
	total := decimal.Zero
	for i := range open {
		pos := &open[i]
		price, err := e.prices.Price(ctx, pos.Exchange, pos.Asset)
		if err != nil {
			continue
		}
		gross := pos.Direction.Sign().Mul(price.Sub(pos.EntryPrice)).Mul(pos.Quantity)
		fees := pos.EntryPrice.Mul(pos.Quantity).Add(price.Mul(pos.Quantity)).Mul(feePct)
		total = total.Add(gross.Sub(fees))
	}
	return total
}

// MarkToMarket writes one valuation snapshot for the account.
func (e *Engine) MarkToMarket(ctx context.Context) error {
	open, err := e.store.ListOpenPositions(ctx, e.account.ID)
	if err != nil {
		return err
	}
	realised, err := e.store.RealisedPnLSince(ctx, e.account.ID, time.Time{})
	if err != nil {
		return err
	}

	unrealised := e.unrealised(ctx, open)
	equity := e.account.InitialCapital.Add(realised).Add(unrealised)

	mark := &models.MarkToMarket{
		AccountID:     e.account.ID,
		TS:            e.now().UTC(),
		TotalEquity:   equity,
		UnrealisedPnL: unrealised,
		RealisedPnL:   realised,
		OpenPositions: len(open),
		Breakdown: map[string]models.StrategyBreakdown{
			e.account.Strategy: {
				UnrealisedPnL: unrealised.InexactFloat64(),
				RealisedPnL:   realised.InexactFloat64(),
				OpenPositions: len(open),
			},
		},
	}
	if err := e.store.InsertMarkToMarket(ctx, mark); err != nil {
		return err
	}

	telemetry.AccountEquity.
		WithLabelValues(e.account.Name, e.account.Exchange, e.account.Strategy).
		Set(equity.InexactFloat64())
	return nil
}
