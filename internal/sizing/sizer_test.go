package sizing

import (
	"math"
	"testing"
)

func TestSizeVolatilityBranch(t *testing.T) {
	s := NewSizer()
	atr := 2.0
	// stop distance = 2*2/100 = 4%, risk budget 100 -> volatility size 2500,
	// kelly amount 1000 wins.
	size, outcome := s.Size(0.1, 100, &atr, 0.01, 10_000)
	if !outcome.OK() {
		t.Fatalf("outcome %+v", outcome)
	}
	if size != 1000 {
		t.Fatalf("size = %v, want 1000", size)
	}
}

func TestSizeZeroATRUsesFiveTimesBudget(t *testing.T) {
	s := NewSizer()
	atr := 0.0
	size, outcome := s.Size(0.1, 100, &atr, 0.01, 10_000)
	if !outcome.OK() {
		t.Fatalf("outcome %+v", outcome)
	}
	if size != 500 {
		t.Fatalf("size = %v, want 500 (5x risk budget)", size)
	}
}

func TestSizeMissingATRUsesThreeTimesBudget(t *testing.T) {
	s := NewSizer()
	size, outcome := s.Size(0.1, 100, nil, 0.01, 10_000)
	if !outcome.OK() {
		t.Fatalf("outcome %+v", outcome)
	}
	if size != 300 {
		t.Fatalf("size = %v, want 300 (3x risk budget)", size)
	}
}

func TestSizeDistinguishesZeroFromMissingATR(t *testing.T) {
	// Same numeric inputs, but ATR zero and ATR absent are different
	// branches and must not share a cache entry.
	s := NewSizer()
	zero := 0.0
	withZero, _ := s.Size(0.1, 100, &zero, 0.01, 10_000)
	without, _ := s.Size(0.1, 100, nil, 0.01, 10_000)
	if withZero == without {
		t.Fatalf("zero-ATR and missing-ATR sizes both %v; branches collapsed", withZero)
	}
}

func TestSizeCapsAtQuarterOfCapital(t *testing.T) {
	s := NewSizer()
	atr := 0.1
	// stop distance 0.2% -> volatility size 50x budget; kelly 0.5 would be
	// 5000. Both exceed the 25% cap.
	size, _ := s.Size(0.5, 100, &atr, 0.05, 10_000)
	if size != 2500 {
		t.Fatalf("size = %v, want 2500 (25%% cap)", size)
	}
}

func TestSizeFloorsAtOnePercentOfCapital(t *testing.T) {
	s := NewSizer()
	atr := 40.0
	// Tiny kelly fraction and a huge stop distance push the raw size below
	// 1% of capital.
	size, _ := s.Size(0.001, 100, &atr, 0.001, 10_000)
	if size != 100 {
		t.Fatalf("size = %v, want 100 (1%% floor)", size)
	}
}

func TestSizeRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		f       float64
		price   float64
		risk    float64
		capital float64
	}{
		{"zero fraction", 0, 100, 0.01, 10_000},
		{"negative price", 0.1, -5, 0.01, 10_000},
		{"zero risk", 0.1, 100, 0, 10_000},
		{"zero capital", 0.1, 100, 0.01, 0},
		{"nan price", 0.1, math.NaN(), 0.01, 10_000},
		{"inf fraction", math.Inf(1), 100, 0.01, 10_000},
	}
	for _, tc := range cases {
		s := NewSizer()
		size, outcome := s.Size(tc.f, tc.price, nil, tc.risk, tc.capital)
		if size != 0 {
			t.Errorf("%s: size = %v, want 0", tc.name, size)
		}
		if outcome.OK() {
			t.Errorf("%s: outcome computed, want rejected", tc.name)
		}
	}
}

func TestSizeRejectsNonFiniteATR(t *testing.T) {
	s := NewSizer()
	atr := math.NaN()
	size, outcome := s.Size(0.1, 100, &atr, 0.01, 10_000)
	if size != 0 || outcome.OK() {
		t.Fatalf("size = %v, outcome %+v", size, outcome)
	}
}

func TestSizeMemoHit(t *testing.T) {
	s := NewSizer()
	atr := 2.0
	first, _ := s.Size(0.1, 100, &atr, 0.01, 10_000)
	second, _ := s.Size(0.1, 100, &atr, 0.01, 10_000)
	if first != second {
		t.Fatalf("memoized size differs: %v vs %v", first, second)
	}
	if st := s.CacheStats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("cache stats %+v", st)
	}
}
