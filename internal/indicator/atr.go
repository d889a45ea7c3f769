// Package indicator implements the technical indicators used by the
// backtester: true range, ATR, simple moving averages, rolling standard
// deviation and SuperTrend. All functions are pure, take a slice and return
// a slice aligned to the input; unavailable lookbacks emit NaN as noted.
package indicator

import (
	"math"

	"github.com/quantfold/backtest/internal/domain"
)

// TrueRange returns the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|). The first bar has no
// previous close, so its true range is high-low. Bars without high/low fall
// back to the close, which collapses the range to |close-prevClose|.
func TrueRange(bars []domain.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		high, low := b.High, b.Low
		if !b.HasRange() {
			high, low = b.Close, b.Close
		}
		tr := high - low
		if i > 0 {
			prev := bars[i-1].Close
			tr = math.Max(tr, math.Abs(high-prev))
			tr = math.Max(tr, math.Abs(low-prev))
		}
		out[i] = tr
	}
	return out
}

// ATR returns the Average True Range: a rolling mean of the true range over
// period bars. Short lookbacks average whatever is available, so every bar
// including the first has a defined value. ATR is never negative.
func ATR(bars []domain.PriceBar, period int) []float64 {
	out := make([]float64, len(bars))
	if period <= 0 || len(bars) == 0 {
		return out
	}
	tr := TrueRange(bars)
	var sum float64
	for i := range tr {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
		}
		n := i + 1
		if n > period {
			n = period
		}
		out[i] = sum / float64(n)
	}
	return out
}
