package config

import "fmt"

// Validate checks the configuration for values that would make a
// component misbehave at runtime rather than fail fast at startup.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.PoolSize <= 0 {
		return fmt.Errorf("database.pool_size must be positive, got %d", c.Database.PoolSize)
	}

	for name, venue := range c.Venues {
		if !venue.Enabled {
			continue
		}
		if venue.BaseURL == "" {
			return fmt.Errorf("venues.%s.base_url is required when enabled", name)
		}
		if venue.PollInterval <= 0 {
			return fmt.Errorf("venues.%s.poll_interval must be positive", name)
		}
	}

	p := c.Paper
	if p.InitialCapital <= 0 {
		return fmt.Errorf("paper.initial_capital must be positive, got %v", p.InitialCapital)
	}
	if p.RiskPerTrade <= 0 || p.RiskPerTrade >= 1 {
		return fmt.Errorf("paper.risk_per_trade must be in (0, 1), got %v", p.RiskPerTrade)
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 1 {
		return fmt.Errorf("paper.stop_loss_pct must be in (0, 1), got %v", p.StopLossPct)
	}
	if p.TakeProfitPct <= 0 {
		return fmt.Errorf("paper.take_profit_pct must be positive, got %v", p.TakeProfitPct)
	}
	if p.MaxPositions <= 0 {
		return fmt.Errorf("paper.max_positions must be positive, got %d", p.MaxPositions)
	}
	if p.MaxExposurePct <= 0 || p.MaxExposurePct > 1 {
		return fmt.Errorf("paper.max_exposure_pct must be in (0, 1], got %v", p.MaxExposurePct)
	}
	for venue, s := range p.SlippagePct {
		if s < 0 {
			return fmt.Errorf("paper.slippage_pct.%s must be non-negative, got %v", venue, s)
		}
	}
	for venue, f := range p.FeePct {
		if f < 0 {
			return fmt.Errorf("paper.fee_pct.%s must be non-negative, got %v", venue, f)
		}
	}
	if p.Kelly.Enabled {
		if p.Kelly.SafetyFactor <= 0 || p.Kelly.SafetyFactor > 1 {
			return fmt.Errorf("paper.kelly.safety_factor must be in (0, 1], got %v", p.Kelly.SafetyFactor)
		}
		if p.Kelly.BaseWinRate <= 0 || p.Kelly.BaseWinRate >= 1 {
			return fmt.Errorf("paper.kelly.base_win_rate must be in (0, 1), got %v", p.Kelly.BaseWinRate)
		}
	}

	if c.Oracle.HyperliquidStaleness <= 0 || c.Oracle.PolymarketStaleness <= 0 {
		return fmt.Errorf("oracle staleness thresholds must be positive")
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be in (0, 65535], got %d", c.API.Port)
	}

	return nil
}
