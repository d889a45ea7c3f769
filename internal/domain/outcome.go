package domain

// Status says how a fallback-capable operation produced its value. The
// engine never raises; callers that need to tell a legitimately computed
// zero apart from a defaulted one inspect the Outcome.
type Status string

const (
	StatusComputed Status = "computed"
	StatusFallback Status = "fallback" // default value substituted after a fault
	StatusRejected Status = "rejected" // input failed validation, zero value returned
)

// Outcome accompanies every fallback-capable result.
type Outcome struct {
	Status Status
	Kind   FaultKind // empty when Status is computed
	Detail string
}

// Computed is the outcome of a normally calculated value.
func Computed() Outcome {
	return Outcome{Status: StatusComputed}
}

// Fallback marks a value that was substituted after a fault.
func Fallback(kind FaultKind, detail string) Outcome {
	return Outcome{Status: StatusFallback, Kind: kind, Detail: detail}
}

// Rejected marks a zero value returned for invalid input.
func Rejected(detail string) Outcome {
	return Outcome{Status: StatusRejected, Kind: FaultValidation, Detail: detail}
}

// OK reports whether the value was computed rather than substituted.
func (o Outcome) OK() bool { return o.Status == StatusComputed }
