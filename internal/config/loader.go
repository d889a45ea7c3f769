package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BACKTEST_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and returns defaults plus env overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BACKTEST_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators tweak a run without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setFloat64(&cfg.Engine.InitialCapital, "BACKTEST_ENGINE_INITIAL_CAPITAL")
	setFloat64(&cfg.Engine.InitialF, "BACKTEST_ENGINE_INITIAL_F")
	setFloat64(&cfg.Engine.RiskPerTrade, "BACKTEST_ENGINE_RISK_PER_TRADE")
	setBool(&cfg.Engine.DynamicRisk, "BACKTEST_ENGINE_DYNAMIC_RISK")
	setInt(&cfg.Engine.ATRPeriod, "BACKTEST_ENGINE_ATR_PERIOD")

	// ── Risk ──
	setBool(&cfg.Risk.Enabled, "BACKTEST_RISK_ENABLED")
	setFloat64(&cfg.Risk.StopLossATR, "BACKTEST_RISK_STOP_LOSS_ATR")
	setFloat64(&cfg.Risk.TakeProfitATR, "BACKTEST_RISK_TAKE_PROFIT_ATR")
	setBool(&cfg.Risk.TrailingStopEnabled, "BACKTEST_RISK_TRAILING_STOP_ENABLED")
	setFloat64(&cfg.Risk.TrailingStopATR, "BACKTEST_RISK_TRAILING_STOP_ATR")
	setBool(&cfg.Risk.BreakEvenEnabled, "BACKTEST_RISK_BREAK_EVEN_ENABLED")
	setFloat64(&cfg.Risk.BreakEvenATR, "BACKTEST_RISK_BREAK_EVEN_ATR")
	setFloat64(&cfg.Risk.MaxPositionRisk, "BACKTEST_RISK_MAX_POSITION_RISK")
	setInt(&cfg.Risk.TimeStopDays, "BACKTEST_RISK_TIME_STOP_DAYS")

	// ── Strategy ──
	setStr(&cfg.Strategy.Type, "BACKTEST_STRATEGY_TYPE")
	setInt(&cfg.Strategy.FastWindow, "BACKTEST_STRATEGY_FAST_WINDOW")
	setInt(&cfg.Strategy.SlowWindow, "BACKTEST_STRATEGY_SLOW_WINDOW")
	setInt(&cfg.Strategy.TrendWindow, "BACKTEST_STRATEGY_TREND_WINDOW")
	setInt(&cfg.Strategy.ATRPeriod, "BACKTEST_STRATEGY_ATR_PERIOD")
	setFloat64(&cfg.Strategy.Multiplier, "BACKTEST_STRATEGY_MULTIPLIER")

	// ── Data ──
	setStr(&cfg.Data.CSVPath, "BACKTEST_DATA_CSV_PATH")
	setInt(&cfg.Data.SyntheticBars, "BACKTEST_DATA_SYNTHETIC_BARS")
	setFloat64(&cfg.Data.StartPrice, "BACKTEST_DATA_START_PRICE")
	setFloat64(&cfg.Data.Drift, "BACKTEST_DATA_DRIFT")
	setFloat64(&cfg.Data.Volatility, "BACKTEST_DATA_VOLATILITY")
	setInt64(&cfg.Data.Seed, "BACKTEST_DATA_SEED")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "BACKTEST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
