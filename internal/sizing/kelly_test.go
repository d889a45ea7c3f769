package sizing

import (
	"math"
	"testing"
)

func TestFractionNeedsFiveSamples(t *testing.T) {
	k := NewKellyEstimator()
	f, outcome := k.Fraction([]float64{0.05, -0.02, 0.01})
	if f != 0.1 {
		t.Fatalf("f = %v, want 0.1 default", f)
	}
	if outcome.OK() {
		t.Fatal("short sample must not be a computed outcome")
	}
}

func TestFractionSingleSidedSample(t *testing.T) {
	k := NewKellyEstimator()
	f, outcome := k.Fraction([]float64{0.01, 0.02, 0.03, 0.04, 0.05})
	if f != 0.1 {
		t.Fatalf("f = %v, want 0.1 default for all-winner sample", f)
	}
	if outcome.OK() {
		t.Fatal("single-sided sample must not be computed")
	}
}

func TestFractionNonFiniteReturn(t *testing.T) {
	k := NewKellyEstimator()
	f, outcome := k.Fraction([]float64{0.01, math.NaN(), -0.02, 0.03, 0.04})
	if f != 0.1 || outcome.OK() {
		t.Fatalf("f = %v, outcome %+v", f, outcome)
	}
}

func TestFractionUpperBound(t *testing.T) {
	// Strong but mixed sample: full Kelly clips at 0.25, scaled to 0.0625.
	trades := []float64{0.05, 0.05, 0.05, 0.05, 0.05, -0.02, -0.02, -0.02, -0.02, -0.02}
	k := NewKellyEstimator()
	f, outcome := k.Fraction(trades)
	if !outcome.OK() {
		t.Fatalf("outcome %+v, want computed", outcome)
	}
	if math.Abs(f-0.0625) > 1e-9 {
		t.Fatalf("f = %v, want 0.0625", f)
	}
}

func TestFractionLowerBound(t *testing.T) {
	// Losing edge: raw Kelly is negative, floor clips at 0.01, scaled 0.0025.
	trades := []float64{0.01, 0.01, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05, -0.05}
	k := NewKellyEstimator()
	f, outcome := k.Fraction(trades)
	if !outcome.OK() {
		t.Fatalf("outcome %+v, want computed", outcome)
	}
	if math.Abs(f-0.0025) > 1e-9 {
		t.Fatalf("f = %v, want 0.0025", f)
	}
}

func TestFractionComputedRange(t *testing.T) {
	trades := []float64{0.03, -0.01, 0.02, -0.02, 0.04, -0.015, 0.025, -0.01, 0.03, -0.02}
	k := NewKellyEstimator()
	f, outcome := k.Fraction(trades)
	if !outcome.OK() {
		t.Fatalf("outcome %+v", outcome)
	}
	if f < 0.0025 || f > 0.0625 {
		t.Fatalf("f = %v outside [0.0025, 0.0625]", f)
	}
}

func TestFractionMemoHit(t *testing.T) {
	trades := []float64{0.05, 0.05, 0.05, 0.05, 0.05, -0.02, -0.02, -0.02, -0.02, -0.02}
	k := NewKellyEstimator()
	first, _ := k.Fraction(trades)
	second, outcome := k.Fraction(trades)
	if first != second {
		t.Fatalf("memoized result differs: %v vs %v", first, second)
	}
	if !outcome.OK() {
		t.Fatalf("outcome %+v", outcome)
	}
	if s := k.CacheStats(); s.Hits != 1 {
		t.Fatalf("cache stats %+v, want one hit", s)
	}
}

func TestFractionTrimsOutliers(t *testing.T) {
	// Eleven points, one absurd winner far outside three sigma. The trimmed
	// estimate must stay within the fractional-Kelly bounds.
	trades := []float64{0.02, -0.01, 0.02, -0.01, 0.02, -0.01, 0.02, -0.01, 0.02, -0.01, 50.0}
	k := NewKellyEstimator()
	f, _ := k.Fraction(trades)
	if f < 0.0025 || f > 0.1 {
		t.Fatalf("f = %v out of range", f)
	}
}
