// Package faults is the error-reporting sink of the engine. Public engine
// operations never raise; instead each recoverable failure is recorded here
// as a structured fault and the operation returns a fallback value. The
// recorder keeps a bounded window of records so a permanently broken input
// column still leaves an observable trail next to the cache statistics.
package faults

import (
	"log/slog"
	"time"

	"github.com/quantfold/backtest/internal/domain"
	"github.com/quantfold/backtest/internal/metrics"
)

// Record is one structured fault entry.
type Record struct {
	Method  string
	Kind    domain.FaultKind
	Message string
	Time    time.Time
	RunID   string
}

// Recorder accumulates fault records for a single run. It is not safe for
// concurrent use; the sequential simulation loop is its only writer.
type Recorder struct {
	runID   string
	limit   int
	records []Record
	total   int
	logger  *slog.Logger
}

// NewRecorder creates a recorder that retains at most limit records. Faults
// beyond the limit are still counted and logged, just not retained.
func NewRecorder(runID string, limit int, logger *slog.Logger) *Recorder {
	return &Recorder{
		runID:  runID,
		limit:  limit,
		logger: logger.With(slog.String("run_id", runID)),
	}
}

// Record logs and stores one fault.
func (r *Recorder) Record(method string, kind domain.FaultKind, message string) {
	r.total++
	metrics.Faults.WithLabelValues(string(kind)).Inc()
	r.logger.Warn("operation fell back",
		slog.String("method", method),
		slog.String("kind", string(kind)),
		slog.String("message", message),
	)
	if len(r.records) < r.limit {
		r.records = append(r.records, Record{
			Method:  method,
			Kind:    kind,
			Message: message,
			Time:    time.Now().UTC(),
			RunID:   r.runID,
		})
	}
}

// Observe records the fault behind a non-computed outcome and is a no-op
// for computed ones.
func (r *Recorder) Observe(method string, outcome domain.Outcome) {
	if outcome.OK() {
		return
	}
	r.Record(method, outcome.Kind, outcome.Detail)
}

// Count returns the total number of faults seen, including unretained ones.
func (r *Recorder) Count() int { return r.total }

// Records returns a copy of the retained fault records.
func (r *Recorder) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}
