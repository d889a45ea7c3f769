package risk

import (
	"log/slog"
	"math"
	"time"

	"github.com/quantfold/backtest/internal/domain"
)

// Manager owns the risk-order sets of a simulation run. It is a no-op while
// disabled, and a bar with no usable ATR simply skips arming or updating —
// never a failure. Manager is not safe for concurrent use; the simulation
// loop is its only caller.
type Manager struct {
	params Params
	orders map[int64]*domain.RiskOrderSet
	logger *slog.Logger
}

// NewManager creates a manager with the given parameters.
func NewManager(params Params, logger *slog.Logger) *Manager {
	return &Manager{
		params: params,
		orders: make(map[int64]*domain.RiskOrderSet),
		logger: logger.With(slog.String("component", "risk_manager")),
	}
}

// Params returns the current parameters.
func (m *Manager) Params() Params { return m.params }

// SetParams replaces the parameters. Existing order sets keep the levels
// they were armed with.
func (m *Manager) SetParams(p Params) { m.params = p }

// Arm attaches a fresh RiskOrderSet to the position: ATR-multiple stop and
// take-profit, trailing stop seeded at the entry, and the time-stop
// deadline. When the implied stop risk exceeds MaxPositionRisk the stop is
// tightened; the take-profit is left untouched. Arming is skipped when the
// manager is disabled or the bar has no usable ATR.
func (m *Manager) Arm(pos *domain.Position, atr float64) {
	if !m.params.Enabled || pos == nil {
		return
	}
	if atr <= 0 || pos.EntryPrice <= 0 || math.IsNaN(atr) {
		return
	}

	entry := pos.EntryPrice
	dir := pos.Side.Sign()
	stop := entry - dir*atr*m.params.StopLossATRMultiplier
	take := entry + dir*atr*m.params.TakeProfitATRMultiplier

	if riskPct := math.Abs(stop-entry) / entry; riskPct > m.params.MaxPositionRisk {
		stop = entry * (1 - dir*m.params.MaxPositionRisk)
	}

	order := &domain.RiskOrderSet{
		PositionID:      pos.ID,
		StopLoss:        stop,
		TakeProfit:      take,
		InitialStopLoss: stop,
		Time: domain.TimeStop{
			EntryTime: pos.OpenedAt,
			MaxDays:   m.params.TimeStopDays,
		},
	}
	if m.params.TrailingStopEnabled {
		order.TrailingArmed = true
		order.Trailing = domain.TrailingStop{
			StopPrice:    stop,
			ExtremePrice: entry,
		}
	}
	m.orders[pos.ID] = order

	m.logger.Debug("risk orders armed",
		slog.Int64("position_id", pos.ID),
		slog.Float64("stop_loss", stop),
		slog.Float64("take_profit", take),
	)
}

// Update advances the trailing stop and the break-even ratchet for one bar.
// The trailing extreme follows new favorable highs/lows and the trailing
// stop only ever tightens. Once price has moved favorably by the break-even
// threshold in ATRs, the stop is ratcheted to no worse than the entry.
func (m *Manager) Update(pos *domain.Position, price, atr float64) {
	if !m.params.Enabled || pos == nil {
		return
	}
	order, ok := m.orders[pos.ID]
	if !ok || atr <= 0 || math.IsNaN(atr) || math.IsNaN(price) {
		return
	}

	dir := pos.Side.Sign()
	if order.TrailingArmed {
		if dir*(price-order.Trailing.ExtremePrice) > 0 {
			order.Trailing.ExtremePrice = price
			candidate := price - dir*atr*m.params.TrailingStopATRMultiplier
			if dir*(candidate-order.Trailing.StopPrice) > 0 {
				order.Trailing.StopPrice = candidate
			}
		}
	}

	if m.params.BreakEvenStop && !order.BreakEvenActivated {
		if dir*(price-pos.EntryPrice) >= m.params.BreakEvenATRThreshold*atr {
			order.BreakEvenActivated = true
			if dir*(pos.EntryPrice-order.StopLoss) > 0 {
				order.StopLoss = pos.EntryPrice
			}
			if order.TrailingArmed && dir*(pos.EntryPrice-order.Trailing.StopPrice) > 0 {
				order.Trailing.StopPrice = pos.EntryPrice
			}
		}
	}
}

// Check evaluates the exit rules for one bar in fixed precedence:
// stop-loss, take-profit, trailing stop, time stop. The first match wins.
// It returns whether to exit, the reason, and the exit price.
func (m *Manager) Check(pos *domain.Position, price float64, now time.Time) (bool, domain.ExitReason, float64) {
	if !m.params.Enabled || pos == nil {
		return false, "", 0
	}
	order, ok := m.orders[pos.ID]
	if !ok {
		return false, "", 0
	}

	dir := pos.Side.Sign()
	if order.StopLoss > 0 && dir*(price-order.StopLoss) <= 0 {
		return true, domain.ExitStopLoss, order.StopLoss
	}
	if order.TakeProfit > 0 && dir*(price-order.TakeProfit) >= 0 {
		return true, domain.ExitTakeProfit, order.TakeProfit
	}
	if order.TrailingArmed && order.Trailing.StopPrice > 0 && dir*(price-order.Trailing.StopPrice) <= 0 {
		return true, domain.ExitTrailingStop, order.Trailing.StopPrice
	}
	if order.Time.MaxDays > 0 && !order.Time.EntryTime.IsZero() && !now.IsZero() {
		held := now.Sub(order.Time.EntryTime)
		if int(held.Hours()/24) >= order.Time.MaxDays {
			return true, domain.ExitTimeStop, price
		}
	}
	return false, "", 0
}

// Clear discards every order attached to the position. Clearing an unknown
// or already-cleared position is a no-op.
func (m *Manager) Clear(positionID int64) {
	delete(m.orders, positionID)
}

// Levels returns the current stop-loss and take-profit of the position's
// order set, for per-bar diagnostics.
func (m *Manager) Levels(positionID int64) (stopLoss, takeProfit float64, ok bool) {
	order, found := m.orders[positionID]
	if !found {
		return 0, 0, false
	}
	return order.StopLoss, order.TakeProfit, true
}

// Orders returns the order set for a position, or nil. Exposed for
// inspection; callers must not retain the pointer across a Clear.
func (m *Manager) Orders(positionID int64) *domain.RiskOrderSet {
	return m.orders[positionID]
}

// Reset drops all order sets, for the start of a new run.
func (m *Manager) Reset() {
	clear(m.orders)
}
