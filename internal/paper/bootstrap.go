package paper

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tradecore/tradecore/internal/config"
	"github.com/tradecore/tradecore/internal/models"
	"github.com/tradecore/tradecore/internal/strategy"
)

// AccountStore extends the engine store with the bootstrap operations.
type AccountStore interface {
	Store
	EnsureAccount(ctx context.Context, name, exchange, strategy string, initialCapital decimal.Decimal) (*models.Account, error)
	EnsurePortfolioGroup(ctx context.Context, name, description string) (*models.PortfolioGroup, error)
	AddGroupMember(ctx context.Context, groupID, accountID int64) error
}

// Bootstrap ensures one account per enabled strategy (on the venue the
// strategy trades), wires the aggregation groups, and returns an
// engine per account. The configured capital is split evenly across
// the enabled strategies. Idempotent across restarts.
func Bootstrap(ctx context.Context, store AccountStore, enabled []string, params map[string]map[string]any, cfg config.PaperConfig, prices PriceSource, log zerolog.Logger) ([]*Engine, error) {
	if len(enabled) == 0 {
		log.Warn().Msg("No strategies enabled, nothing to bootstrap")
		return nil, nil
	}
	capital := decimal.NewFromFloat(cfg.InitialCapital).Div(decimal.NewFromInt(int64(len(enabled))))

	allGroup, err := store.EnsurePortfolioGroup(ctx, "all-strategies", "Every strategy account combined")
	if err != nil {
		return nil, err
	}

	venueGroups := map[string]*models.PortfolioGroup{}
	var engines []*Engine

	for _, name := range enabled {
		strat, err := strategy.New(name, params[name])
		if err != nil {
			return nil, fmt.Errorf("bootstrap strategy %s: %w", name, err)
		}
		venue := strat.Exchange()

		account, err := store.EnsureAccount(ctx, fmt.Sprintf("%s-%s", venue, name), venue, name, capital)
		if err != nil {
			return nil, err
		}

		group, ok := venueGroups[venue]
		if !ok {
			group, err = store.EnsurePortfolioGroup(ctx, fmt.Sprintf("%s-combined", venue), fmt.Sprintf("All %s strategy accounts", venue))
			if err != nil {
				return nil, err
			}
			venueGroups[venue] = group
		}
		if err := store.AddGroupMember(ctx, group.ID, account.ID); err != nil {
			return nil, err
		}
		if err := store.AddGroupMember(ctx, allGroup.ID, account.ID); err != nil {
			return nil, err
		}

		engineLog := log.With().
			Int64("account_id", account.ID).
			Str("exchange", venue).
			Str("strategy", name).
			Logger()
		engines = append(engines, NewEngine(account, store, prices, cfg, engineLog))
	}

	log.Info().Int("engines", len(engines)).Msg("Paper accounts bootstrapped")
	return engines, nil
}

// RunAll runs every engine until the first fatal error or ctx
// cancellation.
func RunAll(ctx context.Context, engines []*Engine) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, engine := range engines {
		g.Go(func() error { return engine.Run(ctx) })
	}
	return g.Wait()
}
