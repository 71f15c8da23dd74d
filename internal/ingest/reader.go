// Package ingest reads minute-level power readings and aggregates them into
// hourly records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

const (
	dateLayout = "2/1/2006"
	timeLayout = "15:04:05"

	columnDate = "Date"
	columnTime = "Time"

	// DefaultTargetColumn is the household's total active power in kilowatts.
	DefaultTargetColumn = "Global_active_power"
	// DefaultMissingToken marks a reading the meter did not record.
	DefaultMissingToken = "?"
)

// ReadOptions controls how an input file is interpreted.
type ReadOptions struct {
	TargetColumn string
	MissingToken string
	Location     *time.Location
}

// DefaultReadOptions returns the options for the UCI household dataset.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		TargetColumn: DefaultTargetColumn,
		MissingToken: DefaultMissingToken,
		Location:     time.UTC,
	}
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.TargetColumn == "" {
		o.TargetColumn = DefaultTargetColumn
	}
	if o.MissingToken == "" {
		o.MissingToken = DefaultMissingToken
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// ReadFile opens path and reads its observations.
func ReadFile(path string, opts ReadOptions) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return ReadObservations(f, opts)
}

// ReadObservations parses a semicolon-delimited file with a header row. Rows
// whose target cell is empty or equals the missing token are returned with
// Missing set.
func ReadObservations(r io.Reader, opts ReadOptions) ([]domain.Observation, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.DataFormatError{Reason: "empty input"}
	}
	if err != nil {
		return nil, csvFormatError(err)
	}

	cols, err := resolveColumns(header, opts.TargetColumn)
	if err != nil {
		return nil, err
	}

	var out []domain.Observation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvFormatError(err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) <= cols.max {
			return nil, &domain.DataFormatError{
				Line:   line,
				Reason: fmt.Sprintf("expected at least %d fields, got %d", cols.max+1, len(rec)),
			}
		}

		obs, err := parseRow(rec, cols, opts, line)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}

	return out, nil
}

type columns struct {
	date, time, target int
	max                int
}

func resolveColumns(header []string, target string) (columns, error) {
	if len(header) == 1 && strings.ContainsAny(header[0], ",\t") {
		return columns{}, &domain.DataFormatError{Line: 1, Reason: "header is not semicolon-delimited"}
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM from the first column.
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		idx[name] = i
	}

	var cols columns
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{columnDate, &cols.date},
		{columnTime, &cols.time},
		{target, &cols.target},
	} {
		i, ok := idx[want.name]
		if !ok {
			return columns{}, &domain.DataFormatError{Line: 1, Reason: "missing column " + want.name}
		}
		*want.dst = i
		cols.max = max(cols.max, i)
	}
	return cols, nil
}

func parseRow(rec []string, cols columns, opts ReadOptions, line int) (domain.Observation, error) {
	dateStr := strings.TrimSpace(rec[cols.date])
	day, err := time.ParseInLocation(dateLayout, dateStr, opts.Location)
	if err != nil {
		return domain.Observation{}, &domain.ParseError{Line: line, Field: columnDate, Value: dateStr, Err: err}
	}

	timeStr := strings.TrimSpace(rec[cols.time])
	clock, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return domain.Observation{}, &domain.ParseError{Line: line, Field: columnTime, Value: timeStr, Err: err}
	}

	ts := time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, opts.Location)

	raw := strings.TrimSpace(rec[cols.target])
	if raw == "" || raw == opts.MissingToken {
		return domain.Observation{Time: ts, Missing: true}, nil
	}

	power, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Observation{}, &domain.ParseError{Line: line, Field: opts.TargetColumn, Value: raw, Err: err}
	}
	if power < 0 {
		return domain.Observation{}, &domain.ParseError{
			Line: line, Field: opts.TargetColumn, Value: raw, Err: errors.New("negative power"),
		}
	}

	return domain.Observation{Time: ts, Power: power}, nil
}

func csvFormatError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.DataFormatError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return fmt.Errorf("read input: %w", err)
}
