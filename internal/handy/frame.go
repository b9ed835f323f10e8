// Package handy holds small stateless helpers for cleaning, reshaping and safely
// traversing tabular data and nested structures.
package handy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dashkit/internal/errors"
)

// Frame is a minimal row-major table
type Frame struct {
	Columns []string
	Rows    [][]any
}

// NewFrame creates an empty frame with the given columns
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// Append adds one row; it must have one value per column
func (f *Frame) Append(values ...any) error {
	if len(values) != len(f.Columns) {
		return errors.Newf(errors.CodeInvalidInput, "row has %d values, frame has %d columns", len(values), len(f.Columns))
	}
	f.Rows = append(f.Rows, append([]any(nil), values...))
	return nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColumnIndex returns the position of a column, or -1
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the values of one column
func (f *Frame) Column(name string) ([]any, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, errors.NotFound(fmt.Sprintf("column %q", name))
	}
	values := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Copy returns a deep copy of the column list and rows
func (f *Frame) Copy() *Frame {
	out := NewFrame(f.Columns...)
	out.Rows = make([][]any, len(f.Rows))
	for i, row := range f.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// Take returns the rows at the given positions, in that order
func (f *Frame) Take(indices []int) (*Frame, error) {
	out := NewFrame(f.Columns...)
	for _, i := range indices {
		if i < 0 || i >= len(f.Rows) {
			return nil, errors.Newf(errors.CodeInvalidInput, "row index %d out of range [0,%d)", i, len(f.Rows))
		}
		out.Rows = append(out.Rows, append([]any(nil), f.Rows[i]...))
	}
	return out, nil
}

// Records converts the frame to one map per row
func (f *Frame) Records() []map[string]any {
	records := make([]map[string]any, len(f.Rows))
	for i, row := range f.Rows {
		rec := make(map[string]any, len(f.Columns))
		for j, c := range f.Columns {
			rec[c] = row[j]
		}
		records[i] = rec
	}
	return records
}

// FrameFromRecords builds a frame from row maps. Columns are sorted by name since map
// order is not stable; keys missing from a record become nil.
func FrameFromRecords(records []map[string]any) *Frame {
	seen := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	f := NewFrame(columns...)
	for _, rec := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// parseCell turns raw text into int64, float64, bool or string; empty text becomes nil
func parseCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	switch s {
	case "True", "true", "TRUE":
		return true
	case "False", "false", "FALSE":
		return false
	}
	return raw
}

// toFloat converts numeric values; ok is false for anything else
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int16:
		return float64(t), true
	case int8:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint8:
		return float64(t), true
	}
	return 0, false
}
