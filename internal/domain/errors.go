package domain

import "errors"

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptySeries      = errors.New("empty price series")
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrOrdersNotFound   = errors.New("no risk orders for position")
)

// FaultKind classifies a recoverable failure inside the engine.
type FaultKind string

const (
	FaultValidation  FaultKind = "validation"  // bad or insufficient input
	FaultComputation FaultKind = "computation" // division by zero, NaN
	FaultStep        FaultKind = "step"        // failure inside one simulation bar
)
