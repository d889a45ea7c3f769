package strategy

import (
	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/indicator"
)

const smaCrossWindow = 20

// SMACross is the fallback strategy used when an unknown strategy name is
// requested: long while the close is above its 20-bar moving average.
type SMACross struct{}

// NewSMACross returns the fallback strategy.
func NewSMACross() *SMACross { return &SMACross{} }

// Name returns the strategy identifier.
func (s *SMACross) Name() string { return "sma_cross" }

// Signals marks every bar whose close is above the rolling average.
func (s *SMACross) Signals(bars []domain.PriceBar) ([]int, error) {
	if len(bars) == 0 {
		return nil, domain.ErrEmptySeries
	}
	closes := domain.Closes(bars)
	ma := indicator.SMA(closes, smaCrossWindow)

	signals := make([]int, len(bars))
	for i := range bars {
		if above(closes[i], ma[i]) {
			signals[i] = 1
		}
	}
	return signals, nil
}
