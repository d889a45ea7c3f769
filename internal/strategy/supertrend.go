package strategy

import (
	"log/slog"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/indicator"
)

// SuperTrend follows the SuperTrend band: it holds a long signal while the
// indicator direction is up and goes flat while it is down.
type SuperTrend struct {
	cfg    Config
	logger *slog.Logger
}

// NewSuperTrend creates the strategy. Zero or negative band settings are
// replaced by the defaults (10-period ATR, 3x multiplier).
func NewSuperTrend(cfg Config, logger *slog.Logger) *SuperTrend {
	def := Defaults()
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	return &SuperTrend{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "supertrend")),
	}
}

// Name returns the strategy identifier.
func (s *SuperTrend) Name() string { return "supertrend" }

// Signals computes the indicator and converts direction into a held
// position: entered when the direction turns up, dropped when it turns
// down, carried unchanged otherwise.
func (s *SuperTrend) Signals(bars []domain.PriceBar) ([]int, error) {
	if len(bars) == 0 {
		return nil, domain.ErrEmptySeries
	}
	st := indicator.SuperTrend(bars, s.cfg.ATRPeriod, s.cfg.Multiplier)

	signals := make([]int, len(bars))
	held := 0
	for i := range bars {
		dir := st.Direction[i]
		if i == 0 {
			if dir == 1 {
				held = 1
			} else {
				held = 0
			}
		} else if dir != st.Direction[i-1] {
			if dir == 1 {
				held = 1
			} else {
				held = 0
			}
		}
		signals[i] = held
	}
	return signals, nil
}
