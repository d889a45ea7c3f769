package sizing

import (
	"math"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/memo"
)

const (
	riskCacheCap = 16

	riskFloor   = 0.005
	riskCeiling = 0.05
)

// RiskAdjuster scales the base risk-per-trade with the current drawdown:
// deep drawdowns cut it, fresh equity highs earn a bonus. The memo key is
// the rounded base risk only — coarse on purpose, which is why the table
// must be recreated for every run.
type RiskAdjuster struct {
	cache *memo.Table[float64, float64]
}

// NewRiskAdjuster returns an adjuster with an empty memo table.
func NewRiskAdjuster() *RiskAdjuster {
	return &RiskAdjuster{cache: memo.New[float64, float64](riskCacheCap)}
}

// CacheStats returns the memo hit/miss counters.
func (r *RiskAdjuster) CacheStats() memo.Stats { return r.cache.Stats() }

// Adjust returns the drawdown-scaled risk for the current capital state,
// clamped to [0.005, 0.05].
func (r *RiskAdjuster) Adjust(current, peak, baseRisk float64) (float64, domain.Outcome) {
	key := math.Round(baseRisk*100) / 100
	if v, ok := r.cache.Get(key); ok {
		return v, domain.Computed()
	}

	if !finite(current) || !finite(peak) || !finite(baseRisk) {
		return clampRisk(baseRisk), domain.Fallback(domain.FaultComputation, "non-finite capital state")
	}

	drawdown := 0.0
	if peak > 0 && current > 0 {
		drawdown = (peak - current) / peak
	}

	adjusted := baseRisk
	switch {
	case drawdown >= 0.10:
		adjusted = baseRisk * 0.5
	case drawdown >= 0.05:
		adjusted = baseRisk * 0.7
	}

	// Recovery bonus on a fresh equity high.
	if current > peak*1.05 {
		adjusted *= 1.2
	}

	adjusted = clampRisk(adjusted)
	r.cache.Put(key, adjusted)
	return adjusted, domain.Computed()
}

func clampRisk(v float64) float64 {
	if math.IsNaN(v) {
		return riskFloor
	}
	return math.Max(riskFloor, math.Min(v, riskCeiling))
}
