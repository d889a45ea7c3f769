package domain

// ExitReason identifies which rule closed a position.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTakeProfit   ExitReason = "take_profit"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitTimeStop     ExitReason = "time_stop"
	ExitSignalSell   ExitReason = "signal_sell"
	ExitSignalBuy    ExitReason = "signal_buy"
)

// RiskExit reports whether the reason came from the risk-order manager as
// opposed to a strategy signal.
func (r ExitReason) RiskExit() bool {
	switch r {
	case ExitStopLoss, ExitTakeProfit, ExitTrailingStop, ExitTimeStop:
		return true
	}
	return false
}

// Trade is the permanent record of one completed position lifecycle. Trades
// are appended to an append-only history, one per closed position.
type Trade struct {
	PositionID    int64
	Side          Side
	EntryIndex    int
	ExitIndex     int
	EntryPrice    float64
	ExitPrice     float64
	Size          float64
	PnLPercent    float64 // percentage return of the trade, in percent
	PnLAbsolute   float64
	Duration      int // bars held
	ExitReason    ExitReason
	CapitalBefore float64
	CapitalAfter  float64
	StopLoss      float64
	TakeProfit    float64
}

// CapitalState tracks current capital and its running high-water mark.
type CapitalState struct {
	Current float64
	Peak    float64
}

// UpdatePeak raises the high-water mark if current capital exceeds it.
func (c *CapitalState) UpdatePeak() {
	if c.Current > c.Peak {
		c.Peak = c.Current
	}
}

// Drawdown returns the fractional decline from the peak, or 0 when no peak
// has been established.
func (c CapitalState) Drawdown() float64 {
	if c.Peak <= 0 {
		return 0
	}
	dd := (c.Peak - c.Current) / c.Peak
	if dd < 0 {
		return 0
	}
	return dd
}
