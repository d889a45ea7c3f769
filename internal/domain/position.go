package domain

import "time"

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Sign returns +1 for long and -1 for short, for direction-aware PnL math.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// PositionStatus tracks whether a position is open or closed.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Position represents the single open trading position of a simulation run.
// IDs are monotonically increasing per run; they carry no price information.
type Position struct {
	ID         int64
	Side       Side
	EntryPrice float64
	EntryIndex int
	Size       float64
	Status     PositionStatus
	OpenedAt   time.Time
}

// UnrealizedPnL returns the mark-to-market profit of the position at price,
// as an absolute capital amount (percentage move times position size).
func (p Position) UnrealizedPnL(price float64) float64 {
	if p.EntryPrice <= 0 || p.Size <= 0 {
		return 0
	}
	move := (price - p.EntryPrice) / p.EntryPrice
	return move * p.Side.Sign() * p.Size
}

// TrailingStop is the trailing component of a RiskOrderSet. ExtremePrice is
// the most favorable price seen since entry (highest for long, lowest for
// short); StopPrice only ever tightens.
type TrailingStop struct {
	StopPrice    float64
	ExtremePrice float64
}

// TimeStop closes a position after MaxDays regardless of price.
type TimeStop struct {
	EntryTime time.Time
	MaxDays   int
}

// RiskOrderSet holds every protective order attached to one open position.
// Exactly one set exists per open position; the whole set is discarded
// atomically when the position closes.
type RiskOrderSet struct {
	PositionID         int64
	StopLoss           float64
	TakeProfit         float64
	InitialStopLoss    float64
	Trailing           TrailingStop
	TrailingArmed      bool
	BreakEvenActivated bool
	Time               TimeStop
}
