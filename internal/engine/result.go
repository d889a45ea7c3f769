package engine

import (
	"time"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/faults"
)

// Row is one per-bar diagnostic record of a simulation run. Rows start at
// the second input bar; bar 0 only seeds the fold.
type Row struct {
	Index     int
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Signal    int
	ATR       float64 // NaN when unavailable on this bar

	Capital         float64
	KellyF          float64
	PositionSize    float64
	RiskLevel       float64
	Drawdown        float64
	PositionType    int // 1 long, -1 short, 0 flat
	StopLossLevel   float64
	TakeProfitLevel float64
	ExitReason      domain.ExitReason
}

// Result is the output of one Simulate call: the diagnostic table plus run
// bookkeeping. A degraded result is the minimal safe table produced when
// the inputs fail validation outright.
type Result struct {
	RunID        string
	Rows         []Row
	Trades       []domain.Trade
	FinalCapital float64
	TotalReturn  float64 // fractional return over initial capital
	FaultCount   int
	Faults       []faults.Record
	Degraded     bool
}

// FinalRow returns the last diagnostic row, if any.
func (r *Result) FinalRow() (Row, bool) {
	if len(r.Rows) == 0 {
		return Row{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}
