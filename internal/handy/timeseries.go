package handy

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"dashkit/internal/errors"
)

// FillMethod selects how Complete fills gaps
type FillMethod string

const (
	FillNone     FillMethod = ""
	FillForward  FillMethod = "ffill"
	FillBackward FillMethod = "bfill"
)

// CET is the zone dashboards report in
var CET = mustLoadLocation("CET")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("handy: load location %s: %v", name, err))
	}
	return loc
}

// Complete reindexes f on the regular grid t0, t0+freq, ... <= t1 using the time column
// indexCol. Rows of f are left-joined onto the grid, the index is converted to CET and
// gaps are optionally filled. The index column comes first in the result.
func Complete(f *Frame, indexCol string, t0, t1 time.Time, freq time.Duration, fill FillMethod) (*Frame, error) {
	if freq <= 0 {
		return nil, errors.Newf(errors.CodeInvalidInput, "frequency must be positive, got %s", freq)
	}
	if t1.Before(t0) {
		return nil, errors.Newf(errors.CodeInvalidInput, "end %s is before start %s", t1, t0)
	}
	switch fill {
	case FillNone, FillForward, FillBackward:
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown fill method %q", fill)
	}
	idx := f.ColumnIndex(indexCol)
	if idx < 0 {
		return nil, errors.NotFound(fmt.Sprintf("index column %q", indexCol))
	}

	byTime := make(map[int64][][]any)
	for _, row := range f.Rows {
		ts, ok := row[idx].(time.Time)
		if !ok {
			return nil, errors.Newf(errors.CodeInvalidInput, "index column %q holds %T, want time.Time", indexCol, row[idx])
		}
		key := ts.UnixNano()
		byTime[key] = append(byTime[key], row)
	}

	columns := []string{indexCol}
	var others []int
	for i, c := range f.Columns {
		if i != idx {
			columns = append(columns, c)
			others = append(others, i)
		}
	}

	out := NewFrame(columns...)
	for t := t0; !t.After(t1); t = t.Add(freq) {
		matches := byTime[t.UnixNano()]
		if len(matches) == 0 {
			row := make([]any, len(columns))
			row[0] = t.In(CET)
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, match := range matches {
			row := make([]any, 0, len(columns))
			row = append(row, t.In(CET))
			for _, i := range others {
				row = append(row, match[i])
			}
			out.Rows = append(out.Rows, row)
		}
	}

	fillGaps(out, fill)
	return out, nil
}

func fillGaps(f *Frame, fill FillMethod) {
	if fill == FillNone {
		return
	}
	for col := 1; col < len(f.Columns); col++ {
		var last any
		if fill == FillForward {
			for _, row := range f.Rows {
				if row[col] == nil {
					row[col] = last
				} else {
					last = row[col]
				}
			}
			continue
		}
		for i := len(f.Rows) - 1; i >= 0; i-- {
			if f.Rows[i][col] == nil {
				f.Rows[i][col] = last
			} else {
				last = f.Rows[i][col]
			}
		}
	}
}

// Atm floors t to unit in CET and moves n units from there. Units of a day or more floor
// to local midnight.
func Atm(t time.Time, unit time.Duration, n int) time.Time {
	local := t.In(CET)
	var floored time.Time
	if unit >= 24*time.Hour {
		floored = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, CET)
	} else {
		floored = local.Truncate(unit)
	}
	return floored.Add(time.Duration(n) * unit)
}

// Rtm is Atm relative to now
func Rtm(n int, unit time.Duration) time.Time {
	return Atm(time.Now(), unit, n)
}
