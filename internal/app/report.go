package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/quantfold/backtest/internal/engine"
)

// Summary aggregates the per-trade results of a finished run.
type Summary struct {
	Trades      int
	Wins        int
	Losses      int
	WinRate     float64
	AvgWin      float64
	AvgLoss     float64
	MaxDrawdown float64
	RiskExits   int
}

// Summarize computes the trade statistics and the maximum drawdown over the
// diagnostics table.
func Summarize(res *engine.Result) Summary {
	var s Summary
	var winSum, lossSum float64
	for _, t := range res.Trades {
		s.Trades++
		if t.PnLAbsolute > 0 {
			s.Wins++
			winSum += t.PnLPercent
		} else {
			s.Losses++
			lossSum += t.PnLPercent
		}
		if t.ExitReason.RiskExit() {
			s.RiskExits++
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if s.Wins > 0 {
		s.AvgWin = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}
	for _, row := range res.Rows {
		if row.Drawdown > s.MaxDrawdown {
			s.MaxDrawdown = row.Drawdown
		}
	}
	return s
}

// WriteSummary prints a human-readable run report.
func WriteSummary(w io.Writer, res *engine.Result, s Summary) {
	fmt.Fprintf(w, "run %s\n", res.RunID)
	fmt.Fprintf(w, "  final capital: %.2f (return %+.2f%%)\n", res.FinalCapital, res.TotalReturn*100)
	fmt.Fprintf(w, "  trades: %d (wins %d, losses %d, win rate %.1f%%)\n", s.Trades, s.Wins, s.Losses, s.WinRate*100)
	fmt.Fprintf(w, "  avg win %+.2f%%, avg loss %+.2f%%\n", s.AvgWin, s.AvgLoss)
	fmt.Fprintf(w, "  max drawdown %.2f%%, risk exits %d\n", s.MaxDrawdown*100, s.RiskExits)
	if res.FaultCount > 0 {
		fmt.Fprintf(w, "  faults: %d\n", res.FaultCount)
	}
	if res.Degraded {
		fmt.Fprintln(w, "  DEGRADED: inputs rejected, table holds initial state only")
	}
}

// WriteCacheStats prints the per-cache hit ratios of a run.
func WriteCacheStats(w io.Writer, stats engine.Stats) {
	fmt.Fprintln(w, "  caches:")
	for _, c := range []struct {
		name string
		stat engine.CacheStat
	}{
		{"atr", stats.ATR},
		{"kelly", stats.Kelly},
		{"position_size", stats.PositionSize},
		{"risk", stats.Risk},
		{"overall", stats.Overall},
	} {
		fmt.Fprintf(w, "    %-14s hits %d, misses %d, hit ratio %.1f%%\n",
			c.name, c.stat.Hits, c.stat.Misses, c.stat.HitRatio*100)
	}
}

var dumpHeader = []string{
	"index", "timestamp", "open", "high", "low", "close", "volume",
	"signal", "atr", "capital", "kelly_f", "position_size", "risk_level",
	"drawdown", "position_type", "stop_loss", "take_profit", "exit_reason",
}

// DumpRows writes the full diagnostics table as CSV to path.
func DumpRows(path string, res *engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dump rows: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(dumpHeader); err != nil {
		return fmt.Errorf("dump rows: %w", err)
	}
	for _, row := range res.Rows {
		if err := w.Write(rowRecord(row)); err != nil {
			return fmt.Errorf("dump rows: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func rowRecord(row engine.Row) []string {
	return []string{
		strconv.Itoa(row.Index),
		row.Timestamp.Format(time.RFC3339),
		fnum(row.Open),
		fnum(row.High),
		fnum(row.Low),
		fnum(row.Close),
		fnum(row.Volume),
		strconv.Itoa(row.Signal),
		fnum(row.ATR),
		fnum(row.Capital),
		fnum(row.KellyF),
		fnum(row.PositionSize),
		fnum(row.RiskLevel),
		fnum(row.Drawdown),
		strconv.Itoa(row.PositionType),
		fnum(row.StopLossLevel),
		fnum(row.TakeProfitLevel),
		string(row.ExitReason),
	}
}

// fnum renders a float for CSV output, leaving NaN cells empty.
func fnum(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
