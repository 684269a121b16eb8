package paper

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/models"
)

// riskStore is the slice of the store the risk gates read from.
type riskStore interface {
	RealisedPnLSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error)
	LastLossExit(ctx context.Context, accountID int64) (time.Time, bool, error)
}

// RiskManager applies the pre-trade gates, in a fixed order, before a
// consumed signal may open a position. The first failing gate's reason
// is recorded on the rejection.
type RiskManager struct {
	cfg   config.PaperConfig
	store riskStore
	now   func() time.Time
}

// NewRiskManager creates the risk gate chain for one engine.
func NewRiskManager(cfg config.PaperConfig, store riskStore) *RiskManager {
	return &RiskManager{cfg: cfg, store: store, now: time.Now}
}

// Check runs the gates against a candidate signal. notional is the
// candidate position's entry notional, counted into the exposure gate
// alongside the open book. It returns ok=false with a reason string
// when any gate rejects. Gate order: daily loss, cooldown, position
// count, exposure.
func (r *RiskManager) Check(ctx context.Context, account *models.Account, equity, notional decimal.Decimal, open []models.Position) (string, bool, error) {
	now := r.now().UTC()

	// Daily loss limit: realised losses since midnight UTC.
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayPnL, err := r.store.RealisedPnLSince(ctx, account.ID, dayStart)
	if err != nil {
		return "", false, err
	}
	if dayPnL.LessThanOrEqual(decimal.NewFromFloat(-r.cfg.MaxDailyLoss)) {
		return "daily_loss_limit_exceeded", false, nil
	}

	// Cooldown after a losing trade. Scoped to the account: one
	// account is one strategy, so a loss anywhere pauses the strategy.
	if lossAt, ok, err := r.store.LastLossExit(ctx, account.ID); err != nil {
		return "", false, err
	} else if ok && now.Sub(lossAt) < r.cfg.CooldownAfterLoss {
		return "cooldown_active", false, nil
	}

	// Position count per strategy account.
	if len(open) >= r.cfg.MaxPositions {
		return fmt.Sprintf("max_positions_per_strategy (%d/%d)", len(open), r.cfg.MaxPositions), false, nil
	}

	// Exposure against equity, including the position the signal
	// would open.
	total := notional
	for i := range open {
		total = total.Add(open[i].Notional())
	}
	limit := equity.Mul(decimal.NewFromFloat(r.cfg.MaxExposurePct))
	if total.GreaterThan(limit) {
		return fmt.Sprintf("max_total_exposure (%s/%s)", total.StringFixed(2), limit.StringFixed(2)), false, nil
	}

	return "", true, nil
}
