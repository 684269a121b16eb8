package paper

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecore/tradecore/internal/models"
)

// bootMemStore extends memStore with the account bootstrap surface.
type bootMemStore struct {
	*memStore
	accounts map[string]*models.Account
	groups   map[string]*models.PortfolioGroup
	members  map[int64][]int64
	nextID   int64
}

func newBootMemStore() *bootMemStore {
	return &bootMemStore{
		memStore: newMemStore(),
		accounts: map[string]*models.Account{},
		groups:   map[string]*models.PortfolioGroup{},
		members:  map[int64][]int64{},
	}
}

func (b *bootMemStore) EnsureAccount(_ context.Context, name, exchange, strategy string, initialCapital decimal.Decimal) (*models.Account, error) {
	if a, ok := b.accounts[name]; ok {
		return a, nil
	}
	b.nextID++
	a := &models.Account{
		ID:             b.nextID,
		Name:           name,
		Exchange:       exchange,
		Strategy:       strategy,
		InitialCapital: initialCapital,
		Active:         true,
	}
	b.accounts[name] = a
	return a, nil
}

func (b *bootMemStore) EnsurePortfolioGroup(_ context.Context, name, description string) (*models.PortfolioGroup, error) {
	if g, ok := b.groups[name]; ok {
		return g, nil
	}
	b.nextID++
	g := &models.PortfolioGroup{ID: b.nextID, Name: name, Description: description}
	b.groups[name] = g
	return g, nil
}

func (b *bootMemStore) AddGroupMember(_ context.Context, groupID, accountID int64) error {
	b.members[groupID] = append(b.members[groupID], accountID)
	return nil
}

func TestBootstrapSplitsCapitalAcrossStrategies(t *testing.T) {
	store := newBootMemStore()
	enabled := []string{"funding_rate", "funding_arb", "rsi_mean_reversion", "contrarian_pure"}

	engines, err := Bootstrap(context.Background(), store, enabled, nil,
		testPaperConfig(), &fakePrices{}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, engines, 4)

	// 10000 over four strategies: 2500 each.
	for name, account := range store.accounts {
		assert.True(t, account.InitialCapital.Equal(decimal.NewFromInt(2500)),
			"account %s got %s", name, account.InitialCapital)
	}
}

func TestBootstrapGroupsAccountsByVenue(t *testing.T) {
	store := newBootMemStore()
	enabled := []string{"funding_rate", "contrarian_pure"}

	_, err := Bootstrap(context.Background(), store, enabled, nil,
		testPaperConfig(), &fakePrices{}, zerolog.Nop())
	require.NoError(t, err)

	require.Contains(t, store.groups, "all-strategies")
	require.Contains(t, store.groups, "hyperliquid-combined")
	require.Contains(t, store.groups, "polymarket-combined")
	assert.Len(t, store.members[store.groups["all-strategies"].ID], 2)
	assert.Len(t, store.members[store.groups["hyperliquid-combined"].ID], 1)
}

func TestBootstrapNothingEnabled(t *testing.T) {
	store := newBootMemStore()

	engines, err := Bootstrap(context.Background(), store, nil, nil,
		testPaperConfig(), &fakePrices{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, engines)
}
