package strategy

import (
	"github.com/quantfold/backtest/internal/domain"
)

// Strategy produces one signal per bar: 1 marks a bar as long-eligible,
// 0 as flat. Strategies are pure functions of the series and keep no state
// between calls.
type Strategy interface {
	Name() string
	Signals(bars []domain.PriceBar) ([]int, error)
}

// Config holds the tunable parameters shared by the built-in strategies.
type Config struct {
	FastWindow  int
	SlowWindow  int
	TrendWindow int
	ATRPeriod   int
	Multiplier  float64
}

// Defaults returns the windows and band settings the strategies were tuned
// with: 10/30/50 moving averages and a 10-period, 3x ATR SuperTrend band.
func Defaults() Config {
	return Config{
		FastWindow:  10,
		SlowWindow:  30,
		TrendWindow: 50,
		ATRPeriod:   10,
		Multiplier:  3.0,
	}
}
