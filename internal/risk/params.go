// Package risk implements the per-position risk-order state machine:
// stop-loss, take-profit, trailing stop with break-even ratchet, and time
// stop. One RiskOrderSet exists per open position; it is armed on entry,
// updated every bar and discarded atomically on exit.
package risk

// Params are the tunable risk-order settings. Distances are expressed in
// multiples of the current ATR.
type Params struct {
	StopLossATRMultiplier     float64
	TakeProfitATRMultiplier   float64
	TrailingStopEnabled       bool
	TrailingStopATRMultiplier float64
	BreakEvenStop             bool
	BreakEvenATRThreshold     float64
	MaxPositionRisk           float64
	TimeStopDays              int
	Enabled                   bool
}

// DefaultParams returns the stock settings: 2 ATR stop, 3 ATR take-profit,
// 1.5 ATR trailing stop with a 1 ATR break-even threshold, 2% max position
// risk and a 10-day time stop.
func DefaultParams() Params {
	return Params{
		StopLossATRMultiplier:     2.0,
		TakeProfitATRMultiplier:   3.0,
		TrailingStopEnabled:       true,
		TrailingStopATRMultiplier: 1.5,
		BreakEvenStop:             true,
		BreakEvenATRThreshold:     1.0,
		MaxPositionRisk:           0.02,
		TimeStopDays:              10,
		Enabled:                   true,
	}
}

// Apply returns a copy of p with the recognized keys from updates applied.
// Unknown keys are ignored, as are values of the wrong type. The accepted
// keys are the snake_case parameter names exposed on the engine surface.
func (p Params) Apply(updates map[string]any) Params {
	for key, value := range updates {
		switch key {
		case "stop_loss_atr_multiplier":
			if v, ok := toFloat(value); ok {
				p.StopLossATRMultiplier = v
			}
		case "take_profit_atr_multiplier":
			if v, ok := toFloat(value); ok {
				p.TakeProfitATRMultiplier = v
			}
		case "trailing_stop_enabled":
			if v, ok := value.(bool); ok {
				p.TrailingStopEnabled = v
			}
		case "trailing_stop_atr_multiplier":
			if v, ok := toFloat(value); ok {
				p.TrailingStopATRMultiplier = v
			}
		case "break_even_stop":
			if v, ok := value.(bool); ok {
				p.BreakEvenStop = v
			}
		case "break_even_atr_threshold":
			if v, ok := toFloat(value); ok {
				p.BreakEvenATRThreshold = v
			}
		case "max_position_risk":
			if v, ok := toFloat(value); ok {
				p.MaxPositionRisk = v
			}
		case "time_stop_days":
			switch v := value.(type) {
			case int:
				p.TimeStopDays = v
			case float64:
				p.TimeStopDays = int(v)
			}
		case "risk_management_enabled":
			if v, ok := value.(bool); ok {
				p.Enabled = v
			}
		}
	}
	return p
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
