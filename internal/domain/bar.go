package domain

import (
	"math"
	"time"
)

// PriceBar is a single OHLCV observation. High, Low, Open and Volume are
// optional; a missing value is represented as NaN. A loaded series is an
// ordered []PriceBar that is never mutated after loading.
type PriceBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// HasRange reports whether the bar carries usable high/low values.
func (b PriceBar) HasRange() bool {
	return !math.IsNaN(b.High) && !math.IsNaN(b.Low)
}

// Closes extracts the close column from a series.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SeriesHasRange reports whether every bar in the series carries high/low
// values. Mixed series are treated as range-less so indicator inputs stay
// consistent across the whole run.
func SeriesHasRange(bars []PriceBar) bool {
	if len(bars) == 0 {
		return false
	}
	for _, b := range bars {
		if !b.HasRange() {
			return false
		}
	}
	return true
}
