package indicator

import "math"

// SMA returns the n-period simple moving average of values, aligned to the
// input. Indices before the first full window are NaN.
func SMA(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	if n <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RollingStd returns the n-period rolling sample standard deviation of
// values. Indices before the first full window are NaN. Used as the ATR
// substitute when a series carries no high/low columns.
func RollingStd(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 1 || len(values) < n {
		return out
	}
	for i := n - 1; i < len(values); i++ {
		window := values[i-n+1 : i+1]
		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(n)
		var ss float64
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}
