// Package config defines the top-level configuration for the backtester and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/quantfold/backtest/internal/risk"
	"github.com/quantfold/backtest/internal/strategy"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BACKTEST_* environment variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Risk     RiskConfig     `toml:"risk"`
	Strategy StrategyConfig `toml:"strategy"`
	Data     DataConfig     `toml:"data"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the simulation inputs: starting capital, the seed Kelly
// fraction and the per-trade risk budget.
type EngineConfig struct {
	InitialCapital float64 `toml:"initial_capital"`
	InitialF       float64 `toml:"initial_f"`
	RiskPerTrade   float64 `toml:"risk_per_trade"`
	DynamicRisk    bool    `toml:"dynamic_risk"`
	ATRPeriod      int     `toml:"atr_period"`
}

// RiskConfig mirrors the exit-management parameters, all stop distances
// expressed in ATR multiples.
type RiskConfig struct {
	Enabled             bool    `toml:"enabled"`
	StopLossATR         float64 `toml:"stop_loss_atr"`
	TakeProfitATR       float64 `toml:"take_profit_atr"`
	TrailingStopEnabled bool    `toml:"trailing_stop_enabled"`
	TrailingStopATR     float64 `toml:"trailing_stop_atr"`
	BreakEvenEnabled    bool    `toml:"break_even_enabled"`
	BreakEvenATR        float64 `toml:"break_even_atr"`
	MaxPositionRisk     float64 `toml:"max_position_risk"`
	TimeStopDays        int     `toml:"time_stop_days"`
}

// ToParams converts the TOML shape into the risk manager's parameter set.
func (r RiskConfig) ToParams() risk.Params {
	return risk.Params{
		Enabled:                   r.Enabled,
		StopLossATRMultiplier:     r.StopLossATR,
		TakeProfitATRMultiplier:   r.TakeProfitATR,
		TrailingStopEnabled:       r.TrailingStopEnabled,
		TrailingStopATRMultiplier: r.TrailingStopATR,
		BreakEvenStop:             r.BreakEvenEnabled,
		BreakEvenATRThreshold:     r.BreakEvenATR,
		MaxPositionRisk:           r.MaxPositionRisk,
		TimeStopDays:              r.TimeStopDays,
	}
}

// StrategyConfig selects the signal strategy and its lookback windows.
type StrategyConfig struct {
	Type        string  `toml:"type"`
	FastWindow  int     `toml:"fast_window"`
	SlowWindow  int     `toml:"slow_window"`
	TrendWindow int     `toml:"trend_window"`
	ATRPeriod   int     `toml:"atr_period"`
	Multiplier  float64 `toml:"multiplier"`
}

// ToStrategy converts the TOML shape into the strategy package's config.
func (s StrategyConfig) ToStrategy() strategy.Config {
	return strategy.Config{
		FastWindow:  s.FastWindow,
		SlowWindow:  s.SlowWindow,
		TrendWindow: s.TrendWindow,
		ATRPeriod:   s.ATRPeriod,
		Multiplier:  s.Multiplier,
	}
}

// DataConfig describes where the price series comes from. When CSVPath is
// empty a synthetic random walk of SyntheticBars bars is generated.
type DataConfig struct {
	CSVPath       string  `toml:"csv_path"`
	SyntheticBars int     `toml:"synthetic_bars"`
	StartPrice    float64 `toml:"start_price"`
	Drift         float64 `toml:"drift"`
	Volatility    float64 `toml:"volatility"`
	Seed          int64   `toml:"seed"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	rp := risk.DefaultParams()
	sc := strategy.Defaults()
	return Config{
		Engine: EngineConfig{
			InitialCapital: 100_000,
			InitialF:       0.1,
			RiskPerTrade:   0.01,
			DynamicRisk:    true,
			ATRPeriod:      14,
		},
		Risk: RiskConfig{
			Enabled:             rp.Enabled,
			StopLossATR:         rp.StopLossATRMultiplier,
			TakeProfitATR:       rp.TakeProfitATRMultiplier,
			TrailingStopEnabled: rp.TrailingStopEnabled,
			TrailingStopATR:     rp.TrailingStopATRMultiplier,
			BreakEvenEnabled:    rp.BreakEvenStop,
			BreakEvenATR:        rp.BreakEvenATRThreshold,
			MaxPositionRisk:     rp.MaxPositionRisk,
			TimeStopDays:        rp.TimeStopDays,
		},
		Strategy: StrategyConfig{
			Type:        "multi_timeframe",
			FastWindow:  sc.FastWindow,
			SlowWindow:  sc.SlowWindow,
			TrendWindow: sc.TrendWindow,
			ATRPeriod:   sc.ATRPeriod,
			Multiplier:  sc.Multiplier,
		},
		Data: DataConfig{
			SyntheticBars: 500,
			StartPrice:    100,
			Drift:         0.0002,
			Volatility:    0.015,
			Seed:          42,
		},
		LogLevel: "info",
	}
}

// validStrategies enumerates the accepted values for Strategy.Type.
var validStrategies = map[string]bool{
	"multi_timeframe": true,
	"supertrend":      true,
	"sma_cross":       true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine
	if c.Engine.InitialCapital <= 0 {
		errs = append(errs, "engine: initial_capital must be > 0")
	}
	if c.Engine.InitialF <= 0 || c.Engine.InitialF > 0.5 {
		errs = append(errs, fmt.Sprintf("engine: initial_f must be in (0, 0.5], got %g", c.Engine.InitialF))
	}
	if c.Engine.RiskPerTrade <= 0 || c.Engine.RiskPerTrade > 0.1 {
		errs = append(errs, fmt.Sprintf("engine: risk_per_trade must be in (0, 0.1], got %g", c.Engine.RiskPerTrade))
	}
	if c.Engine.ATRPeriod < 1 {
		errs = append(errs, "engine: atr_period must be >= 1")
	}

	// Risk
	if c.Risk.StopLossATR <= 0 {
		errs = append(errs, "risk: stop_loss_atr must be > 0")
	}
	if c.Risk.TakeProfitATR <= 0 {
		errs = append(errs, "risk: take_profit_atr must be > 0")
	}
	if c.Risk.TrailingStopEnabled && c.Risk.TrailingStopATR <= 0 {
		errs = append(errs, "risk: trailing_stop_atr must be > 0 when trailing is enabled")
	}
	if c.Risk.BreakEvenEnabled && c.Risk.BreakEvenATR <= 0 {
		errs = append(errs, "risk: break_even_atr must be > 0 when break-even is enabled")
	}
	if c.Risk.MaxPositionRisk <= 0 || c.Risk.MaxPositionRisk >= 1 {
		errs = append(errs, fmt.Sprintf("risk: max_position_risk must be in (0, 1), got %g", c.Risk.MaxPositionRisk))
	}
	if c.Risk.TimeStopDays < 1 {
		errs = append(errs, "risk: time_stop_days must be >= 1")
	}

	// Strategy
	if !validStrategies[strings.ToLower(c.Strategy.Type)] {
		errs = append(errs, fmt.Sprintf("strategy: unknown type %q (valid: multi_timeframe, supertrend, sma_cross)", c.Strategy.Type))
	}
	if c.Strategy.FastWindow < 1 || c.Strategy.SlowWindow < 1 || c.Strategy.TrendWindow < 1 {
		errs = append(errs, "strategy: all lookback windows must be >= 1")
	}
	if c.Strategy.FastWindow >= c.Strategy.SlowWindow {
		errs = append(errs, fmt.Sprintf("strategy: fast_window (%d) must be smaller than slow_window (%d)", c.Strategy.FastWindow, c.Strategy.SlowWindow))
	}
	if c.Strategy.SlowWindow >= c.Strategy.TrendWindow {
		errs = append(errs, fmt.Sprintf("strategy: slow_window (%d) must be smaller than trend_window (%d)", c.Strategy.SlowWindow, c.Strategy.TrendWindow))
	}
	if c.Strategy.ATRPeriod < 1 {
		errs = append(errs, "strategy: atr_period must be >= 1")
	}
	if c.Strategy.Multiplier <= 0 {
		errs = append(errs, "strategy: multiplier must be > 0")
	}

	// Data
	if c.Data.CSVPath == "" {
		if c.Data.SyntheticBars < 2 {
			errs = append(errs, "data: synthetic_bars must be >= 2 when no csv_path is set")
		}
		if c.Data.StartPrice <= 0 {
			errs = append(errs, "data: start_price must be > 0")
		}
		if c.Data.Volatility < 0 {
			errs = append(errs, "data: volatility must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
