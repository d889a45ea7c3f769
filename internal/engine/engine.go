// Package engine contains the simulation orchestrator: a strict sequential
// fold over the price series that owns capital, the single open position,
// the trade history and the per-bar diagnostics. Simulation is
// single-threaded by construction — each bar's decisions depend on the
// previous bar's capital and position state — so nothing here locks.
package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/faults"
	"github.com/quantfold/backtest/internal/memo"
	"github.com/quantfold/backtest/internal/metrics"
	"github.com/quantfold/backtest/internal/risk"
	"github.com/quantfold/backtest/internal/strategy"
)

const (
	defaultInitialF     = 0.1
	defaultRiskPerTrade = 0.01
	defaultATRPeriod    = 14
	kellyWindow         = 10
	faultWindow         = 256
	// closeStdWindow is the ATR substitute window for series without
	// high/low columns.
	closeStdWindow = 20
)

// Options are the per-run simulation settings.
type Options struct {
	InitialF     float64 // starting Kelly fraction, default 0.1
	RiskPerTrade float64 // base risk budget per trade, default 0.01
	Strategy     string  // registered strategy name, default multi_timeframe
	DynamicRisk  bool    // drawdown-aware risk scaling
	ATRPeriod    int     // risk ATR period, default 14
}

func (o Options) withDefaults() Options {
	if o.InitialF == 0 {
		o.InitialF = defaultInitialF
	}
	if o.RiskPerTrade == 0 {
		o.RiskPerTrade = defaultRiskPerTrade
	}
	if o.Strategy == "" {
		o.Strategy = "multi_timeframe"
	}
	if o.ATRPeriod <= 0 {
		o.ATRPeriod = defaultATRPeriod
	}
	return o
}

// CacheStat is the hit/miss summary of one memo table.
type CacheStat struct {
	Hits     uint64
	Misses   uint64
	HitRatio float64
}

func toCacheStat(s memo.Stats) CacheStat {
	return CacheStat{Hits: s.Hits, Misses: s.Misses, HitRatio: s.HitRatio()}
}

// Stats is the cache and fault summary of the most recent run.
type Stats struct {
	ATR          CacheStat
	Kelly        CacheStat
	PositionSize CacheStat
	Risk         CacheStat
	Overall      CacheStat
	Faults       int
}

// Engine runs backtests. All memo tables and risk-order state are scoped to
// a single Simulate call; only the configuration, the last run's trade
// history and its statistics live on the engine between runs.
type Engine struct {
	initialCapital float64
	riskParams     risk.Params
	registry       *strategy.Registry
	logger         *slog.Logger

	trades       []domain.Trade
	stats        Stats
	faultRecords []faults.Record
}

// New creates an engine with the given starting capital, risk parameters
// and strategy registry.
func New(initialCapital float64, params risk.Params, registry *strategy.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		initialCapital: initialCapital,
		riskParams:     params,
		registry:       registry,
		logger:         logger.With(slog.String("component", "engine")),
	}
}

// Simulate replays the price series bar by bar and returns the diagnostic
// table. It never fails: invalid inputs short-circuit to a minimal safe
// table and per-bar faults carry the previous bar's state forward. Callers
// that need run health inspect Result.FaultCount or CacheStats.
func (e *Engine) Simulate(ctx context.Context, bars []domain.PriceBar, opts Options) *Result {
	opts = opts.withDefaults()
	runID := uuid.NewString()
	recorder := faults.NewRecorder(runID, faultWindow, e.logger)

	e.logger.InfoContext(ctx, "simulation starting",
		slog.String("run_id", runID),
		slog.Int("bars", len(bars)),
		slog.String("strategy", opts.Strategy),
		slog.Bool("dynamic_risk", opts.DynamicRisk),
	)

	if reason := e.validate(bars, opts); reason != "" {
		recorder.Record("simulate", domain.FaultValidation, reason)
		res := e.safeResult(runID, bars, recorder)
		e.finish(res, nil)
		return res
	}

	r := newRun(e, runID, bars, opts, recorder)
	res := r.execute(ctx)
	e.finish(res, r)
	return res
}

// TradeHistory returns the trades of the most recent run, oldest first.
func (e *Engine) TradeHistory() []domain.Trade {
	out := make([]domain.Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// CacheStats returns the per-cache hit/miss statistics and the fault count
// of the most recent run.
func (e *Engine) CacheStats() Stats { return e.stats }

// FaultRecords returns the retained fault records of the most recent run.
func (e *Engine) FaultRecords() []faults.Record {
	out := make([]faults.Record, len(e.faultRecords))
	copy(out, e.faultRecords)
	return out
}

// UpdateRiskParameters applies the recognized snake_case keys from updates
// to the risk parameters used by subsequent runs. Unknown keys are ignored.
func (e *Engine) UpdateRiskParameters(updates map[string]any) {
	e.riskParams = e.riskParams.Apply(updates)
}

// RiskParameters returns the currently configured risk parameters.
func (e *Engine) RiskParameters() risk.Params { return e.riskParams }

// validate reports why the run cannot proceed, or "" when it can. The
// bounds mirror the parameter checks of the sizing model: the starting
// fraction must sit in (0, 0.5], the risk budget in (0, 0.1].
func (e *Engine) validate(bars []domain.PriceBar, opts Options) string {
	if len(bars) < 2 {
		return "series too short to simulate"
	}
	hasClose := false
	for _, b := range bars {
		if !math.IsNaN(b.Close) && b.Close > 0 {
			hasClose = true
			break
		}
	}
	if !hasClose {
		return "series has no usable close prices"
	}
	if !(opts.InitialF > 0 && opts.InitialF <= 0.5) {
		return "initial fraction out of (0, 0.5]"
	}
	if !(opts.RiskPerTrade > 0 && opts.RiskPerTrade <= 0.1) {
		return "risk per trade out of (0, 0.1]"
	}
	if e.initialCapital <= 0 {
		return "initial capital must be positive"
	}
	return ""
}

// safeResult builds the degraded fallback table: initial capital and
// neutral diagnostics on up to 100 input bars.
func (e *Engine) safeResult(runID string, bars []domain.PriceBar, recorder *faults.Recorder) *Result {
	n := len(bars)
	if n > 100 {
		n = 100
	}
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		b := bars[i]
		rows = append(rows, Row{
			Index:        i,
			Timestamp:    b.Timestamp,
			Open:         b.Open,
			High:         b.High,
			Low:          b.Low,
			Close:        b.Close,
			Volume:       b.Volume,
			ATR:          math.NaN(),
			Capital:      e.initialCapital,
			KellyF:       defaultInitialF,
			RiskLevel:    defaultRiskPerTrade,
			PositionType: 0,
		})
	}
	return &Result{
		RunID:        runID,
		Rows:         rows,
		FinalCapital: e.initialCapital,
		FaultCount:   recorder.Count(),
		Faults:       recorder.Records(),
		Degraded:     true,
	}
}

// finish publishes the run's trades and statistics on the engine and the
// metrics registry.
func (e *Engine) finish(res *Result, r *run) {
	e.trades = res.Trades
	e.faultRecords = res.Faults

	var stats Stats
	if r != nil {
		atr := r.atrCache.Stats()
		kelly := r.kelly.CacheStats()
		size := r.sizer.CacheStats()
		riskStats := r.adjuster.CacheStats()

		stats = Stats{
			ATR:          toCacheStat(atr),
			Kelly:        toCacheStat(kelly),
			PositionSize: toCacheStat(size),
			Risk:         toCacheStat(riskStats),
			Overall:      toCacheStat(atr.Add(kelly).Add(size).Add(riskStats)),
		}
		metrics.RecordCache("atr", atr.Hits, atr.Misses)
		metrics.RecordCache("kelly", kelly.Hits, kelly.Misses)
		metrics.RecordCache("position_size", size.Hits, size.Misses)
		metrics.RecordCache("risk", riskStats.Hits, riskStats.Misses)
	}
	stats.Faults = res.FaultCount
	e.stats = stats
	metrics.FinalEquity.Set(res.FinalCapital)

	e.logger.Info("simulation finished",
		slog.String("run_id", res.RunID),
		slog.Int("rows", len(res.Rows)),
		slog.Int("trades", len(res.Trades)),
		slog.Float64("final_capital", res.FinalCapital),
		slog.Int("faults", res.FaultCount),
		slog.Bool("degraded", res.Degraded),
	)
}
