// Package sizing implements the capital-management math: the fractional
// Kelly estimator, the ATR-aware position sizer and the drawdown-aware risk
// adjuster. Every operation is fallback-capable: numerical faults produce a
// documented default together with a non-computed Outcome, never a panic.
package sizing

import (
	"fmt"
	"math"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/memo"
)

const (
	// kellyDefault is returned whenever a fraction cannot be estimated.
	kellyDefault = 0.1
	// kellyScale converts full Kelly into fractional Kelly.
	kellyScale = 0.25

	kellyCacheCap   = 20
	kellyMinSamples = 5
	kellyTrimAbove  = 10
)

type kellyKey struct {
	count int
	mean  float64
	std   float64
}

// KellyEstimator derives a fractional-Kelly position multiplier from a
// trailing window of trade percentage returns. Results are memoized by the
// rounded (count, mean, std) signature of the input.
type KellyEstimator struct {
	cache *memo.Table[kellyKey, float64]
}

// NewKellyEstimator returns an estimator with an empty memo table.
func NewKellyEstimator() *KellyEstimator {
	return &KellyEstimator{cache: memo.New[kellyKey, float64](kellyCacheCap)}
}

// CacheStats returns the memo hit/miss counters.
func (k *KellyEstimator) CacheStats() memo.Stats { return k.cache.Stats() }

// Fraction estimates the fractional Kelly multiplier for the given trade
// returns. Fewer than five samples, a single-sided sample (no winners or no
// losers) or any numerical fault yield the 0.1 default. A computed result
// always lies in [0.0025, 0.0625].
func (k *KellyEstimator) Fraction(trades []float64) (float64, domain.Outcome) {
	if len(trades) < kellyMinSamples {
		return kellyDefault, domain.Fallback(domain.FaultValidation,
			fmt.Sprintf("need %d trades, have %d", kellyMinSamples, len(trades)))
	}
	for _, t := range trades {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return kellyDefault, domain.Fallback(domain.FaultComputation, "non-finite trade return")
		}
	}

	mean, std := meanStd(trades)
	key := kellyKey{count: len(trades), mean: round6(mean), std: round6(std)}
	if v, ok := k.cache.Get(key); ok {
		return v, domain.Computed()
	}

	sample := trades
	if len(sample) > kellyTrimAbove && std > 0 {
		sample = trimOutliers(sample, mean, std)
	}

	var winners, losers []float64
	for _, t := range sample {
		switch {
		case t > 0:
			winners = append(winners, t)
		case t < 0:
			losers = append(losers, t)
		}
	}
	if len(winners) == 0 || len(losers) == 0 {
		k.cache.Put(key, kellyDefault)
		return kellyDefault, domain.Fallback(domain.FaultValidation, "single-sided trade sample")
	}

	winRate := float64(len(winners)) / float64(len(sample))
	avgWin := meanOf(winners)
	avgLoss := math.Abs(meanOf(losers))
	if avgWin < 1e-3 || avgLoss < 1e-3 {
		k.cache.Put(key, kellyDefault)
		return kellyDefault, domain.Fallback(domain.FaultComputation, "degenerate win/loss averages")
	}

	winLossRatio := avgWin / avgLoss
	f := winRate - (1-winRate)/winLossRatio

	// Conservative alternative from the sample's mean/variance.
	sampleMean, sampleStd := meanStd(sample)
	fAlt := kellyDefault
	if sampleStd > 1e-3 {
		fAlt = sampleMean / (sampleStd * sampleStd)
	}
	if fAlt > 0 {
		f = math.Min(f, fAlt)
	}

	f = math.Max(0.01, math.Min(f, 0.25))
	f *= kellyScale

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return kellyDefault, domain.Fallback(domain.FaultComputation, "non-finite kelly fraction")
	}
	k.cache.Put(key, f)
	return f, domain.Computed()
}

// trimOutliers drops points beyond three standard deviations of the mean.
func trimOutliers(trades []float64, mean, std float64) []float64 {
	lo, hi := mean-3*std, mean+3*std
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t >= lo && t <= hi {
			out = append(out, t)
		}
	}
	return out
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := meanOf(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
