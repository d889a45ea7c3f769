package sizing

import (
	"math"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/memo"
)

const sizerCacheCap = 50

type sizeKey struct {
	f      float64
	price  float64
	atr    float64
	hasATR bool
	risk   float64
}

// Sizer computes position sizes from the Kelly fraction, the price, the
// current ATR and the risk-per-trade budget. Results are memoized by the
// quantized inputs; capital is deliberately not part of the key, matching
// the sizing model this reimplements, so tables must stay run-scoped.
type Sizer struct {
	cache *memo.Table[sizeKey, float64]
}

// NewSizer returns a sizer with an empty memo table.
func NewSizer() *Sizer {
	return &Sizer{cache: memo.New[sizeKey, float64](sizerCacheCap)}
}

// CacheStats returns the memo hit/miss counters.
func (s *Sizer) CacheStats() memo.Stats { return s.cache.Stats() }

// Size returns the capital amount to commit to a new position, or 0 when
// any input is non-finite or non-positive. A nil atr applies the 3x
// risk-budget fallback; an ATR of exactly zero applies the 5x fallback.
// These are two distinct, intentionally preserved branches. A positive
// result is clamped to [1%, 25%] of capital.
func (s *Sizer) Size(f, price float64, atr *float64, riskPerTrade, capital float64) (float64, domain.Outcome) {
	atrValue := 0.0
	if atr != nil {
		atrValue = *atr
	}
	key := sizeKey{
		f:      round4(f),
		price:  round4(price),
		atr:    round4(atrValue),
		hasATR: atr != nil,
		risk:   round4(riskPerTrade),
	}
	if v, ok := s.cache.Get(key); ok {
		return v, domain.Computed()
	}

	if !finite(f) || !finite(price) || !finite(riskPerTrade) {
		s.cache.Put(key, 0)
		return 0, domain.Rejected("non-finite sizing input")
	}
	if atr != nil && !finite(*atr) {
		s.cache.Put(key, 0)
		return 0, domain.Rejected("non-finite atr")
	}
	if f <= 0 || price <= 0 || riskPerTrade <= 0 || capital <= 0 {
		s.cache.Put(key, 0)
		return 0, domain.Rejected("non-positive sizing input")
	}

	kellyAmount := capital * f
	riskAmount := capital * riskPerTrade

	var size float64
	switch {
	case atr != nil && *atr > 0:
		stopLossPct := (2 * *atr) / price
		size = math.Min(kellyAmount, riskAmount/stopLossPct)
	case atr != nil:
		// ATR supplied but zero: volatility sizing collapses.
		size = math.Min(kellyAmount, riskAmount*5)
	default:
		// No ATR supplied at all.
		size = math.Min(kellyAmount, riskAmount*3)
	}

	size = math.Min(size, capital*0.25)
	size = math.Max(size, capital*0.01)

	outcome := domain.Computed()
	if !finite(size) || size <= 0 || size > capital {
		size = math.Min(kellyAmount, riskAmount*3)
		outcome = domain.Fallback(domain.FaultComputation, "clamped size out of range")
	}

	s.cache.Put(key, size)
	return size, outcome
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
