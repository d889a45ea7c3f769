package faults

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/quantfold/backtest/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordRetainsUpToLimit(t *testing.T) {
	r := NewRecorder("run-1", 3, testLogger())
	for i := 0; i < 5; i++ {
		r.Record("op", domain.FaultComputation, fmt.Sprintf("fault %d", i))
	}
	if r.Count() != 5 {
		t.Fatalf("count = %d, want all faults counted", r.Count())
	}
	records := r.Records()
	if len(records) != 3 {
		t.Fatalf("retained = %d, want limit 3", len(records))
	}
	// Oldest records win retention.
	if records[0].Message != "fault 0" || records[2].Message != "fault 2" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].RunID != "run-1" || records[0].Kind != domain.FaultComputation {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestObserveSkipsComputedOutcomes(t *testing.T) {
	r := NewRecorder("run-1", 10, testLogger())
	r.Observe("op", domain.Computed())
	if r.Count() != 0 {
		t.Fatalf("count = %d, computed outcome must not record", r.Count())
	}
	r.Observe("op", domain.Fallback(domain.FaultValidation, "bad"))
	r.Observe("op", domain.Rejected("worse"))
	if r.Count() != 2 {
		t.Fatalf("count = %d, want 2", r.Count())
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	r := NewRecorder("run-1", 10, testLogger())
	r.Record("op", domain.FaultStep, "boom")
	got := r.Records()
	got[0].Message = "mutated"
	if r.Records()[0].Message != "boom" {
		t.Fatal("Records must return a copy")
	}
}
