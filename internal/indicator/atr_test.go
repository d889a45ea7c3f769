package indicator

import (
	"math"
	"testing"

	"github.com/quantfold/backtest/internal/domain"
)

func rangeBars(ohlc [][4]float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(ohlc))
	for i, v := range ohlc {
		bars[i] = domain.PriceBar{Open: v[0], High: v[1], Low: v[2], Close: v[3]}
	}
	return bars
}

func closeBars(closes []float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{Open: c, High: math.NaN(), Low: math.NaN(), Close: c}
	}
	return bars
}

func TestTrueRangeFirstBarUsesHighLow(t *testing.T) {
	bars := rangeBars([][4]float64{
		{100, 105, 95, 102},
		{102, 104, 101, 103},
	})
	tr := TrueRange(bars)
	if tr[0] != 10 {
		t.Fatalf("tr[0] = %v, want 10", tr[0])
	}
	// max(104-101, |104-102|, |101-102|) = 3
	if tr[1] != 3 {
		t.Fatalf("tr[1] = %v, want 3", tr[1])
	}
}

func TestTrueRangeGapDominates(t *testing.T) {
	bars := rangeBars([][4]float64{
		{100, 101, 99, 100},
		{90, 91, 89, 90}, // gap down, range vs prev close dominates
	})
	tr := TrueRange(bars)
	if tr[1] != 11 {
		t.Fatalf("tr[1] = %v, want 11 (|89-100|)", tr[1])
	}
}

func TestATRDefinedFromFirstBar(t *testing.T) {
	bars := rangeBars([][4]float64{
		{100, 104, 96, 102},
		{102, 106, 100, 104},
		{104, 105, 103, 104},
	})
	atr := ATR(bars, 14)
	for i, v := range atr {
		if math.IsNaN(v) {
			t.Fatalf("atr[%d] is NaN; every bar must have a value", i)
		}
		if v < 0 {
			t.Fatalf("atr[%d] = %v, negative", i, v)
		}
	}
	// Bar 0 averages only itself.
	if atr[0] != 8 {
		t.Fatalf("atr[0] = %v, want 8", atr[0])
	}
	// Bar 1 averages two true ranges: (8 + 6) / 2.
	if atr[1] != 7 {
		t.Fatalf("atr[1] = %v, want 7", atr[1])
	}
}

func TestATRRollingWindow(t *testing.T) {
	// Constant 2-point range, one 10-point spike that must age out.
	ohlc := make([][4]float64, 8)
	for i := range ohlc {
		ohlc[i] = [4]float64{100, 101, 99, 100}
	}
	ohlc[2] = [4]float64{100, 105, 95, 100}
	atr := ATR(rangeBars(ohlc), 3)
	// Bars 5+ only see 2-point ranges again.
	if atr[7] != 2 {
		t.Fatalf("atr[7] = %v, want 2 after spike aged out", atr[7])
	}
}

func TestATRZeroOnFlatRange(t *testing.T) {
	ohlc := make([][4]float64, 5)
	for i := range ohlc {
		ohlc[i] = [4]float64{100, 100, 100, 100}
	}
	atr := ATR(rangeBars(ohlc), 3)
	for i, v := range atr {
		if v != 0 {
			t.Fatalf("atr[%d] = %v, want 0 on flat series", i, v)
		}
	}
}

func TestSMAWarmup(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	ma := SMA(vals, 3)
	if !math.IsNaN(ma[0]) || !math.IsNaN(ma[1]) {
		t.Fatal("expected NaN before the first full window")
	}
	if ma[2] != 2 || ma[4] != 4 {
		t.Fatalf("ma = %v", ma)
	}
}

func TestRollingStdWarmupAndValue(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	std := RollingStd(vals, 8)
	for i := 0; i < 7; i++ {
		if !math.IsNaN(std[i]) {
			t.Fatalf("std[%d] should be NaN during warm-up", i)
		}
	}
	// Sample std of the full window is ~2.138.
	if math.Abs(std[7]-2.138) > 0.01 {
		t.Fatalf("std[7] = %v", std[7])
	}
}

func TestRollingStdZeroOnFlatWindow(t *testing.T) {
	vals := []float64{5, 5, 5, 5}
	std := RollingStd(vals, 4)
	if std[3] != 0 {
		t.Fatalf("std[3] = %v, want 0", std[3])
	}
}

func TestSuperTrendTurnsUpOnRisingSeries(t *testing.T) {
	ohlc := make([][4]float64, 40)
	p := 100.0
	for i := range ohlc {
		ohlc[i] = [4]float64{p, p + 1, p - 1, p + 0.8}
		p += 0.8
	}
	st := SuperTrend(rangeBars(ohlc), 10, 3.0)
	if len(st.Line) != 40 || len(st.Direction) != 40 {
		t.Fatalf("result lengths %d/%d", len(st.Line), len(st.Direction))
	}
	if st.Direction[39] != 1 {
		t.Fatalf("direction[39] = %v, want 1 on a steady rise", st.Direction[39])
	}
	// While up, the line is the lower band and must sit below the close.
	if st.Line[39] >= ohlc[39][3] {
		t.Fatalf("line %v not below close %v in uptrend", st.Line[39], ohlc[39][3])
	}
}

func TestSuperTrendFlipsOnReversal(t *testing.T) {
	ohlc := make([][4]float64, 60)
	p := 100.0
	for i := 0; i < 30; i++ {
		ohlc[i] = [4]float64{p, p + 0.5, p - 0.5, p + 1}
		p += 1
	}
	for i := 30; i < 60; i++ {
		ohlc[i] = [4]float64{p, p + 0.5, p - 0.5, p - 2}
		p -= 2
	}
	st := SuperTrend(rangeBars(ohlc), 10, 3.0)
	if st.Direction[29] != 1 {
		t.Fatalf("direction[29] = %v, want 1 before the reversal", st.Direction[29])
	}
	if st.Direction[59] != -1 {
		t.Fatalf("direction[59] = %v, want -1 after the collapse", st.Direction[59])
	}
}

func TestSuperTrendCloseOnlySeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	st := SuperTrend(closeBars(closes), 10, 3.0)
	if st.Direction[19] != 1 {
		t.Fatalf("direction[19] = %v, want 1", st.Direction[19])
	}
}
