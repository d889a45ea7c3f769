// Package feed supplies price series to the engine. The engine itself only
// consumes an ordered, already-validated []domain.PriceBar; this package is
// the thin provider used by the CLI. Heavy format detection and gap-filling
// belong to an upstream collaborator and are out of scope here.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantfold/backtest/internal/domain"
)

// LoadCSV reads an OHLCV series from a CSV file with a header row. The
// close column is required; timestamp, open, high, low and volume are
// optional. Column names are matched case-insensitively. Missing optional
// values are represented as NaN on the returned bars.
func LoadCSV(path string) ([]domain.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses CSV bar data from r. See LoadCSV for the format.
func ReadCSV(r io.Reader) ([]domain.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("feed: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	closeIdx, ok := cols["close"]
	if !ok {
		return nil, fmt.Errorf("feed: %w: close column required", domain.ErrInvalidInput)
	}

	var bars []domain.PriceBar
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: line %d: %w", line, err)
		}

		closeVal, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("feed: line %d: bad close %q", line, record[closeIdx])
		}

		bar := domain.PriceBar{
			Close:  closeVal,
			Open:   optionalField(record, cols, "open"),
			High:   optionalField(record, cols, "high"),
			Low:    optionalField(record, cols, "low"),
			Volume: optionalField(record, cols, "volume"),
		}
		if idx, ok := cols["timestamp"]; ok && idx < len(record) {
			bar.Timestamp = parseTimestamp(strings.TrimSpace(record[idx]))
		} else if idx, ok := cols["date"]; ok && idx < len(record) {
			bar.Timestamp = parseTimestamp(strings.TrimSpace(record[idx]))
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, domain.ErrEmptySeries
	}
	return bars, nil
}

func optionalField(record []string, cols map[string]int, name string) float64 {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseTimestamp accepts RFC 3339, a date-only form, or unix seconds.
// Unparseable values yield the zero time; the engine treats those bars as
// having no time information.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}
