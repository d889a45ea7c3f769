package strategy

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/quantfold/backtest/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func closeBars(closes []float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{Open: c, High: math.NaN(), Low: math.NaN(), Close: c}
	}
	return bars
}

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestRegistryUnknownStrategy(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nope")
	if !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Fatalf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestRegistryRegisterAndList(t *testing.T) {
	reg := NewRegistry()
	sma := NewSMACross()
	mt := NewMultiTimeframe(Defaults(), testLogger())
	reg.Register(sma.Name(), sma)
	reg.Register(mt.Name(), mt)

	got, err := reg.Get("sma_cross")
	if err != nil || got.Name() != "sma_cross" {
		t.Fatalf("got %v, err %v", got, err)
	}
	names := reg.List()
	if len(names) != 2 || names[0] != "multi_timeframe" || names[1] != "sma_cross" {
		t.Fatalf("names = %v", names)
	}
}

func TestMultiTimeframeEmptySeries(t *testing.T) {
	s := NewMultiTimeframe(Defaults(), testLogger())
	if _, err := s.Signals(nil); !errors.Is(err, domain.ErrEmptySeries) {
		t.Fatalf("err = %v, want ErrEmptySeries", err)
	}
}

func TestMultiTimeframeWarmupNeverSignals(t *testing.T) {
	s := NewMultiTimeframe(Defaults(), testLogger())
	signals, err := s.Signals(closeBars(risingCloses(80)))
	if err != nil {
		t.Fatal(err)
	}
	// Before the fast window fills every comparison is against NaN.
	for i := 0; i < 9; i++ {
		if signals[i] != 0 {
			t.Fatalf("signal[%d] = %d during warm-up", i, signals[i])
		}
	}
}

func TestMultiTimeframeSignalsRisingTrend(t *testing.T) {
	s := NewMultiTimeframe(Defaults(), testLogger())
	signals, err := s.Signals(closeBars(risingCloses(80)))
	if err != nil {
		t.Fatal(err)
	}
	// Once all three averages are stacked under the close the signal holds.
	for i := 55; i < 80; i++ {
		if signals[i] != 1 {
			t.Fatalf("signal[%d] = %d, want 1 in an established uptrend", i, signals[i])
		}
	}
}

func TestMultiTimeframeFlatSeries(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100
	}
	s := NewMultiTimeframe(Defaults(), testLogger())
	signals, err := s.Signals(closeBars(closes))
	if err != nil {
		t.Fatal(err)
	}
	for i, sig := range signals {
		if sig != 0 {
			t.Fatalf("signal[%d] = %d on a flat series", i, sig)
		}
	}
}

func TestSuperTrendHoldsThroughUptrend(t *testing.T) {
	s := NewSuperTrend(Defaults(), testLogger())
	signals, err := s.Signals(closeBars(risingCloses(40)))
	if err != nil {
		t.Fatal(err)
	}
	for i := 5; i < 40; i++ {
		if signals[i] != 1 {
			t.Fatalf("signal[%d] = %d, want held long", i, signals[i])
		}
	}
}

func TestSuperTrendDropsOnDowntrend(t *testing.T) {
	closes := risingCloses(30)
	p := closes[len(closes)-1]
	for i := 0; i < 30; i++ {
		p -= 3
		closes = append(closes, p)
	}
	s := NewSuperTrend(Defaults(), testLogger())
	signals, err := s.Signals(closeBars(closes))
	if err != nil {
		t.Fatal(err)
	}
	if signals[29] != 1 {
		t.Fatalf("signal[29] = %d, want 1 before the reversal", signals[29])
	}
	if signals[59] != 0 {
		t.Fatalf("signal[59] = %d, want 0 after the collapse", signals[59])
	}
}

func TestSMACrossSignals(t *testing.T) {
	s := NewSMACross()
	signals, err := s.Signals(closeBars(risingCloses(40)))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 19; i++ {
		if signals[i] != 0 {
			t.Fatalf("signal[%d] = %d during warm-up", i, signals[i])
		}
	}
	for i := 19; i < 40; i++ {
		if signals[i] != 1 {
			t.Fatalf("signal[%d] = %d, want 1 with close above the average", i, signals[i])
		}
	}
}

func TestConfigDefaultsFillZeroWindows(t *testing.T) {
	s := NewMultiTimeframe(Config{}, testLogger())
	if s.cfg.FastWindow != 10 || s.cfg.SlowWindow != 30 || s.cfg.TrendWindow != 50 {
		t.Fatalf("cfg = %+v", s.cfg)
	}
	st := NewSuperTrend(Config{}, testLogger())
	if st.cfg.ATRPeriod != 10 || st.cfg.Multiplier != 3.0 {
		t.Fatalf("cfg = %+v", st.cfg)
	}
}
