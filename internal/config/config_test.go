package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tradecore", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 10, cfg.Database.PoolSize)

	hl, ok := cfg.Venues["hyperliquid"]
	require.True(t, ok)
	assert.True(t, hl.Enabled)
	assert.Equal(t, "https://api.hyperliquid.xyz", hl.BaseURL)
	assert.Equal(t, 60*time.Second, hl.PollInterval)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, hl.Assets)

	pm, ok := cfg.Venues["polymarket"]
	require.True(t, ok)
	assert.Equal(t, 600*time.Second, pm.PollInterval)

	assert.Len(t, cfg.Strategies.Enabled, 7)
	assert.Equal(t, 5*time.Second, cfg.Strategies.Tick)

	assert.Equal(t, 10000.0, cfg.Paper.InitialCapital)
	assert.Equal(t, 0.02, cfg.Paper.RiskPerTrade)
	assert.Equal(t, 60*time.Minute, cfg.Paper.PositionTimeout)
	assert.Equal(t, 500.0, cfg.Paper.MaxDailyLoss)
	assert.False(t, cfg.Paper.Kelly.Enabled)
	assert.Equal(t, 0.5, cfg.Paper.Kelly.SafetyFactor)
	assert.Equal(t, 0.0005, cfg.Paper.VenueSlippage("hyperliquid"))
	assert.Equal(t, 0.005, cfg.Paper.VenueSlippage("polymarket"))
	assert.Equal(t, 0.00035, cfg.Paper.VenueFee("hyperliquid"))
	assert.Equal(t, 0.0, cfg.Paper.VenueFee("polymarket"))

	assert.Equal(t, 30*time.Second, cfg.Oracle.HyperliquidStaleness)
	assert.Equal(t, 600*time.Second, cfg.Oracle.PolymarketStaleness)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADING_DATABASE_URL", "postgres://u:p@dbhost:5432/other")
	t.Setenv("TRADING_LOG_LEVEL", "debug")
	t.Setenv("TRADING_LOG_FORMAT", "console")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@dbhost:5432/other", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "console", cfg.App.LogFormat)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database url", func(c *Config) { c.Database.URL = "" }},
		{"zero pool size", func(c *Config) { c.Database.PoolSize = 0 }},
		{"negative capital", func(c *Config) { c.Paper.InitialCapital = -1 }},
		{"risk per trade too big", func(c *Config) { c.Paper.RiskPerTrade = 1.5 }},
		{"zero stop loss", func(c *Config) { c.Paper.StopLossPct = 0 }},
		{"exposure above one", func(c *Config) { c.Paper.MaxExposurePct = 1.2 }},
		{"negative venue slippage", func(c *Config) { c.Paper.SlippagePct["polymarket"] = -0.001 }},
		{"negative venue fee", func(c *Config) { c.Paper.FeePct["hyperliquid"] = -0.0001 }},
		{"zero staleness", func(c *Config) { c.Oracle.HyperliquidStaleness = 0 }},
		{"bad kelly base rate", func(c *Config) {
			c.Paper.Kelly.Enabled = true
			c.Paper.Kelly.BaseWinRate = 1.0
		}},
		{"enabled venue without url", func(c *Config) {
			v := c.Venues["hyperliquid"]
			v.BaseURL = ""
			c.Venues["hyperliquid"] = v
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetAddrs(t *testing.T) {
	api := APIConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", api.GetAPIAddr())

	redis := RedisConfig{Host: "localhost", Port: 6379}
	assert.Equal(t, "localhost:6379", redis.GetRedisAddr())
}
