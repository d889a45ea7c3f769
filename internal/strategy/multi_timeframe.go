package strategy

import (
	"log/slog"
	"math"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/indicator"
)

// MultiTimeframe emits a long signal when the close sits above a majority
// of the fast/slow/trend moving averages and the averages themselves are
// stacked in trend order. Comparisons against a still-warming-up average
// count as false, so early bars never signal.
type MultiTimeframe struct {
	cfg    Config
	logger *slog.Logger
}

// NewMultiTimeframe creates the strategy with the given windows. Zero or
// negative windows are replaced by the defaults.
func NewMultiTimeframe(cfg Config, logger *slog.Logger) *MultiTimeframe {
	def := Defaults()
	if cfg.FastWindow <= 0 {
		cfg.FastWindow = def.FastWindow
	}
	if cfg.SlowWindow <= 0 {
		cfg.SlowWindow = def.SlowWindow
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = def.TrendWindow
	}
	return &MultiTimeframe{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "multi_timeframe")),
	}
}

// Name returns the strategy identifier.
func (s *MultiTimeframe) Name() string { return "multi_timeframe" }

// Signals evaluates the moving-average consensus per bar.
func (s *MultiTimeframe) Signals(bars []domain.PriceBar) ([]int, error) {
	if len(bars) == 0 {
		return nil, domain.ErrEmptySeries
	}
	closes := domain.Closes(bars)
	maFast := indicator.SMA(closes, s.cfg.FastWindow)
	maSlow := indicator.SMA(closes, s.cfg.SlowWindow)
	maTrend := indicator.SMA(closes, s.cfg.TrendWindow)

	signals := make([]int, len(bars))
	for i := range bars {
		close := closes[i]

		votes := 0
		for _, ma := range []float64{maFast[i], maSlow[i], maTrend[i]} {
			if above(close, ma) {
				votes++
			}
		}
		combined := votes >= 2

		strength := 0
		if above(close, maSlow[i]) {
			strength++
		}
		if above(maFast[i], maSlow[i]) {
			strength++
		}
		if above(maSlow[i], maTrend[i]) {
			strength++
		}

		if combined && strength >= 2 {
			signals[i] = 1
		}
	}
	return signals, nil
}

// above treats NaN on either side as false, matching the warm-up behavior
// of the rolling averages.
func above(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a > b
}
