package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/faults"
	"github.com/quantfold/backtest/internal/indicator"
	"github.com/quantfold/backtest/internal/memo"
	"github.com/quantfold/backtest/internal/metrics"
	"github.com/quantfold/backtest/internal/risk"
	"github.com/quantfold/backtest/internal/sizing"
	"github.com/quantfold/backtest/internal/strategy"
)

// run holds the state of one Simulate call. Every memo table, the risk
// manager and the position arena live here, so nothing can leak into the
// next run.
type run struct {
	e    *Engine
	id   string
	bars []domain.PriceBar
	opts Options
	rec  *faults.Recorder

	signals  []int
	atrCol   []float64
	atrCache *memo.Table[int, []float64]

	kelly    *sizing.KellyEstimator
	sizer    *sizing.Sizer
	adjuster *sizing.RiskAdjuster
	riskMgr  *risk.Manager

	// realized is capital from closed trades only; capital tracks the
	// displayed (mark-to-market) value and its peak.
	realized     float64
	capital      domain.CapitalState
	currentF     float64
	currentRisk  float64
	pos          *domain.Position
	nextID       int64
	tradeReturns []float64
	trades       []domain.Trade
	rows         []Row
}

func newRun(e *Engine, id string, bars []domain.PriceBar, opts Options, rec *faults.Recorder) *run {
	return &run{
		e:           e,
		id:          id,
		bars:        bars,
		opts:        opts,
		rec:         rec,
		atrCache:    memo.New[int, []float64](8),
		kelly:       sizing.NewKellyEstimator(),
		sizer:       sizing.NewSizer(),
		adjuster:    sizing.NewRiskAdjuster(),
		riskMgr:     risk.NewManager(e.riskParams, e.logger),
		realized:    e.initialCapital,
		capital:     domain.CapitalState{Current: e.initialCapital, Peak: e.initialCapital},
		currentF:    opts.InitialF,
		currentRisk: opts.RiskPerTrade,
		nextID:      1,
	}
}

// execute prepares the signal and ATR columns and folds over the bars.
func (r *run) execute(ctx context.Context) *Result {
	r.prepareSignals()
	if r.signals == nil {
		return r.e.safeResult(r.id, r.bars, r.rec)
	}
	r.prepareATR()

	for i := 1; i < len(r.bars); i++ {
		if err := ctx.Err(); err != nil {
			r.rec.Record("simulate", domain.FaultStep,
				fmt.Sprintf("run cancelled at bar %d: %v", i, err))
			break
		}
		row, err := r.step(i)
		if err != nil {
			r.rec.Record("simulate_step", domain.FaultStep, err.Error())
			row = r.carryForward(i)
		}
		r.rows = append(r.rows, row)
	}

	final := r.e.initialCapital
	if n := len(r.rows); n > 0 {
		final = r.rows[n-1].Capital
	}
	return &Result{
		RunID:        r.id,
		Rows:         r.rows,
		Trades:       r.trades,
		FinalCapital: final,
		TotalReturn:  (final - r.e.initialCapital) / r.e.initialCapital,
		FaultCount:   r.rec.Count(),
		Faults:       r.rec.Records(),
	}
}

// prepareSignals resolves the strategy and computes the signal column. An
// unknown strategy name falls back to the 20-bar SMA cross; a strategy
// failure falls back the same way. Both are recorded as faults.
func (r *run) prepareSignals() {
	strat, err := r.e.registry.Get(r.opts.Strategy)
	if err != nil {
		r.rec.Record("simulate", domain.FaultValidation, err.Error())
		strat = strategy.NewSMACross()
	}
	signals, err := callSignals(strat, r.bars)
	if err == nil && len(signals) != len(r.bars) {
		err = fmt.Errorf("returned %d signals for %d bars", len(signals), len(r.bars))
	}
	if err != nil {
		r.rec.Record("simulate", domain.FaultComputation,
			fmt.Sprintf("strategy %s: %v", strat.Name(), err))
		signals, err = strategy.NewSMACross().Signals(r.bars)
		if err != nil || len(signals) != len(r.bars) {
			return
		}
	}
	r.signals = signals
}

// callSignals runs a strategy, converting a panic into an error.
func callSignals(strat strategy.Strategy, bars []domain.PriceBar) (signals []int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return strat.Signals(bars)
}

// signalAt returns the signal of bar i, treating a short column as flat.
func (r *run) signalAt(i int) int {
	if i >= len(r.signals) {
		return 0
	}
	return r.signals[i]
}

// prepareATR computes the risk ATR column: true-range ATR when the series
// carries high/low, otherwise the rolling close standard deviation proxy.
func (r *run) prepareATR() {
	if domain.SeriesHasRange(r.bars) {
		r.atrCol = r.atrForPeriod(r.opts.ATRPeriod)
		return
	}
	r.atrCol = indicator.RollingStd(domain.Closes(r.bars), closeStdWindow)
}

func (r *run) atrForPeriod(period int) []float64 {
	if col, ok := r.atrCache.Get(period); ok {
		return col
	}
	col := indicator.ATR(r.bars, period)
	r.atrCache.Put(period, col)
	return col
}

// atrAt returns the ATR of bar i, or nil when it is unavailable there.
func (r *run) atrAt(i int) *float64 {
	if i >= len(r.atrCol) || math.IsNaN(r.atrCol[i]) {
		return nil
	}
	return &r.atrCol[i]
}

// step processes one bar. Any panic is converted into an error so the
// caller can fail forward with the previous bar's state.
func (r *run) step(i int) (row Row, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("bar %d: %v", i, p)
		}
	}()

	bar := r.bars[i]
	signal := r.signalAt(i)
	price := bar.Close
	if math.IsNaN(price) || price <= 0 {
		price = r.bars[i-1].Close
	}
	atrPtr := r.atrAt(i)

	// Displayed capital from the previous bar drives the high-water mark,
	// the drawdown and the dynamic risk level for this bar.
	r.capital.UpdatePeak()
	drawdown := r.capital.Drawdown()
	if r.opts.DynamicRisk {
		adjusted, outcome := r.adjuster.Adjust(r.capital.Current, r.capital.Peak, r.opts.RiskPerTrade)
		r.rec.Observe("dynamic_risk", outcome)
		r.currentRisk = adjusted
	}

	unrealized := 0.0
	if r.pos != nil {
		unrealized = r.pos.UnrealizedPnL(price)
	}

	exitTrade := false
	var reason domain.ExitReason
	exitPrice := price

	if r.pos != nil {
		if should, rsn, px := r.riskMgr.Check(r.pos, price, bar.Timestamp); should {
			exitTrade, reason, exitPrice = true, rsn, px
		} else if atrPtr != nil {
			r.riskMgr.Update(r.pos, price, *atrPtr)
		}
	}

	if r.pos == nil {
		r.tryEnter(i, signal, price, atrPtr)
	} else if !exitTrade {
		// A flat signal closes a long, a long signal closes a short.
		if r.pos.Side == domain.SideLong && signal == 0 {
			exitTrade, reason, exitPrice = true, domain.ExitSignalSell, price
		} else if r.pos.Side == domain.SideShort && signal == 1 {
			exitTrade, reason, exitPrice = true, domain.ExitSignalBuy, price
		}
	}

	if exitTrade && r.pos != nil {
		r.closePosition(i, exitPrice, reason)
		unrealized = 0
	}

	total := r.realized + unrealized
	if total < 0 {
		total = 0
	}
	r.capital.Current = total

	row = Row{
		Index:     i,
		Timestamp: bar.Timestamp,
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
		Close:     bar.Close,
		Volume:    bar.Volume,
		Signal:    signal,
		ATR:       math.NaN(),
		Capital:   total,
		KellyF:    r.currentF,
		RiskLevel: r.currentRisk,
		Drawdown:  drawdown,
	}
	if atrPtr != nil {
		row.ATR = *atrPtr
	}
	if r.pos != nil {
		row.PositionSize = r.pos.Size
		if r.pos.Side == domain.SideLong {
			row.PositionType = 1
		} else {
			row.PositionType = -1
		}
		if stop, take, ok := r.riskMgr.Levels(r.pos.ID); ok {
			row.StopLossLevel = stop
			row.TakeProfitLevel = take
		}
	}
	if exitTrade {
		row.ExitReason = reason
	}
	return row, nil
}

// tryEnter opens a position when the bar's signal qualifies and the sizer
// grants a positive size: 1 opens a long, 0 opens a short. Risk orders are
// armed only when the bar has a usable ATR.
func (r *run) tryEnter(i, signal int, price float64, atrPtr *float64) {
	var side domain.Side
	switch signal {
	case 1:
		side = domain.SideLong
	case 0:
		side = domain.SideShort
	default:
		return
	}
	if price <= 0 {
		return
	}

	size, outcome := r.sizer.Size(r.currentF, price, atrPtr, r.currentRisk, r.realized)
	r.rec.Observe("position_size", outcome)
	if size <= 0 {
		return
	}

	r.pos = &domain.Position{
		ID:         r.nextID,
		Side:       side,
		EntryPrice: price,
		EntryIndex: i,
		Size:       size,
		Status:     domain.PositionStatusOpen,
		OpenedAt:   r.bars[i].Timestamp,
	}
	r.nextID++
	if atrPtr != nil {
		r.riskMgr.Arm(r.pos, *atrPtr)
	}
}

// closePosition realizes the trade, appends it to the history, refreshes
// the Kelly fraction from the trailing window and atomically discards the
// position's risk orders.
func (r *run) closePosition(exitIndex int, exitPrice float64, reason domain.ExitReason) {
	pos := r.pos
	move := (exitPrice - pos.EntryPrice) / pos.EntryPrice * pos.Side.Sign()
	pnl := move * pos.Size
	stop, take, _ := r.riskMgr.Levels(pos.ID)

	capitalBefore := r.realized
	r.realized += pnl
	if r.realized < 0 {
		r.realized = 0
	}

	r.trades = append(r.trades, domain.Trade{
		PositionID:    pos.ID,
		Side:          pos.Side,
		EntryIndex:    pos.EntryIndex,
		ExitIndex:     exitIndex,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     exitPrice,
		Size:          pos.Size,
		PnLPercent:    move * 100,
		PnLAbsolute:   pnl,
		Duration:      exitIndex - pos.EntryIndex,
		ExitReason:    reason,
		CapitalBefore: capitalBefore,
		CapitalAfter:  r.realized,
		StopLoss:      stop,
		TakeProfit:    take,
	})
	r.tradeReturns = append(r.tradeReturns, move)
	metrics.Trades.WithLabelValues(string(reason), string(pos.Side)).Inc()

	if len(r.tradeReturns) >= kellyWindow {
		f, outcome := r.kelly.Fraction(r.tradeReturns[len(r.tradeReturns)-kellyWindow:])
		r.rec.Observe("kelly_fraction", outcome)
		r.currentF = f
	}

	r.riskMgr.Clear(pos.ID)
	pos.Status = domain.PositionStatusClosed
	r.pos = nil
}

// carryForward builds the fail-forward row for bar i: the previous bar's
// diagnostics unchanged under this bar's price columns.
func (r *run) carryForward(i int) Row {
	var prev Row
	if len(r.rows) > 0 {
		prev = r.rows[len(r.rows)-1]
	} else {
		prev = Row{
			Capital:   r.e.initialCapital,
			KellyF:    r.opts.InitialF,
			RiskLevel: r.opts.RiskPerTrade,
		}
	}

	bar := r.bars[i]
	row := prev
	row.Index = i
	row.Timestamp = bar.Timestamp
	row.Open = bar.Open
	row.High = bar.High
	row.Low = bar.Low
	row.Close = bar.Close
	row.Volume = bar.Volume
	row.Signal = r.signalAt(i)
	row.ATR = math.NaN()
	if v := r.atrAt(i); v != nil {
		row.ATR = *v
	}
	return row
}
