package indicator

import (
	"math"

	"github.com/quantfold/backtest/internal/domain"
)

// SuperTrendResult holds the indicator line and direction per bar.
// Direction is +1 while the trend is up and -1 while it is down.
type SuperTrendResult struct {
	Line      []float64
	Direction []float64
}

// SuperTrend computes the SuperTrend indicator: a band of multiplier*ATR
// around the HL2 midpoint whose direction flips when the close crosses the
// opposing final band. Final bands carry forward so the active band only
// tightens while a trend holds. Warm-up values before the first computable
// bar are back-filled from that bar; a series with no computable bar at all
// defaults to direction up with the line pinned to the close.
func SuperTrend(bars []domain.PriceBar, period int, multiplier float64) SuperTrendResult {
	n := len(bars)
	res := SuperTrendResult{
		Line:      make([]float64, n),
		Direction: make([]float64, n),
	}
	if n == 0 {
		return res
	}

	atr := ATR(bars, period)
	hl2 := make([]float64, n)
	basicUpper := make([]float64, n)
	basicLower := make([]float64, n)
	for i, b := range bars {
		mid := (b.High + b.Low) / 2
		if !b.HasRange() {
			mid = b.Close
		}
		hl2[i] = mid
		basicUpper[i] = mid + multiplier*atr[i]
		basicLower[i] = mid - multiplier*atr[i]
	}

	start := -1
	for i := range bars {
		if !math.IsNaN(bars[i].Close) && !math.IsNaN(basicUpper[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		// Degenerate series: hold an uptrend on the close.
		for i := range bars {
			res.Direction[i] = 1
			res.Line[i] = bars[i].Close
		}
		return res
	}

	finalUpper := make([]float64, n)
	finalLower := make([]float64, n)
	finalUpper[start] = basicUpper[start]
	finalLower[start] = basicLower[start]
	if bars[start].Close <= finalUpper[start] {
		res.Direction[start] = -1
		res.Line[start] = finalUpper[start]
	} else {
		res.Direction[start] = 1
		res.Line[start] = finalLower[start]
	}

	for i := start + 1; i < n; i++ {
		if basicUpper[i] < finalUpper[i-1] || bars[i-1].Close > finalUpper[i-1] {
			finalUpper[i] = basicUpper[i]
		} else {
			finalUpper[i] = finalUpper[i-1]
		}
		if basicLower[i] > finalLower[i-1] || bars[i-1].Close < finalLower[i-1] {
			finalLower[i] = basicLower[i]
		} else {
			finalLower[i] = finalLower[i-1]
		}

		if res.Direction[i-1] == 1 {
			if bars[i].Close <= finalLower[i] {
				res.Direction[i] = -1
				res.Line[i] = finalUpper[i]
			} else {
				res.Direction[i] = 1
				res.Line[i] = finalLower[i]
			}
		} else {
			if bars[i].Close >= finalUpper[i] {
				res.Direction[i] = 1
				res.Line[i] = finalLower[i]
			} else {
				res.Direction[i] = -1
				res.Line[i] = finalUpper[i]
			}
		}
	}

	// Back-fill the warm-up region from the first computed bar.
	for i := 0; i < start; i++ {
		res.Direction[i] = res.Direction[start]
		res.Line[i] = res.Line[start]
	}
	return res
}
