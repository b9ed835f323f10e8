package handy

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"dashkit/internal/errors"
)

var (
	nonColumnChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	nonDigits      = regexp.MustCompile(`[^0-9]`)
)

// FixCols simplifies column names to lowercase [a-z0-9_] and makes them unique and non-empty.
// Empty names become "x"; a name already taken gets the next free counter suffix, starting at 2.
func FixCols(names []string) []string {
	counts := make(map[string]int, len(names))
	used := make(map[string]bool, len(names))
	fixed := make([]string, 0, len(names))
	for _, name := range names {
		col := strings.ToLower(nonColumnChars.ReplaceAllString(name, ""))
		if strings.TrimSpace(col) == "" {
			col = "x"
		}
		unique := col
		if used[unique] {
			n := max(counts[col], 1)
			for used[unique] {
				n++
				unique = col + strconv.Itoa(n)
			}
			counts[col] = n
		}
		used[unique] = true
		fixed = append(fixed, unique)
	}
	return fixed
}

// FixFrameCols applies FixCols to a frame in place and returns it
func FixFrameCols(f *Frame) *Frame {
	f.Columns = FixCols(f.Columns)
	return f
}

// HaveCols returns a copy of f that has every column in cols. Missing columns are appended
// in the order of cols and filled with fill. When converters is non-nil it must have one
// entry per column in cols; a nil entry leaves that column alone.
func HaveCols(f *Frame, cols []string, fill any, converters []func(any) any) (*Frame, error) {
	if converters != nil && len(converters) != len(cols) {
		return nil, errors.Newf(errors.CodeInvalidInput, "got %d converters for %d columns", len(converters), len(cols))
	}

	out := f.Copy()
	for _, col := range cols {
		if out.ColumnIndex(col) >= 0 {
			continue
		}
		out.Columns = append(out.Columns, col)
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], fill)
		}
	}

	for i, convert := range converters {
		if convert == nil {
			continue
		}
		idx := out.ColumnIndex(cols[i])
		for _, row := range out.Rows {
			row[idx] = convert(row[idx])
		}
	}
	return out, nil
}

// FlatCols flattens multi-level column names by joining the levels with sep. With drop,
// level 0 is removed first; single-level names are kept as they are.
func FlatCols(levels [][]string, sep string, drop bool) []string {
	flat := make([]string, len(levels))
	for i, col := range levels {
		parts := col
		if drop && len(col) > 1 {
			parts = col[1:]
		}
		flat[i] = strings.Join(parts, sep)
	}
	return flat
}

// Cut bins column col of f into newcol. bins are right-closed edges (b[i], b[i+1]] and
// labels has one entry per bin. The stored label is newcol followed by the digits of the
// bin label; values outside every bin or non-numeric get just newcol.
func Cut(f *Frame, col, newcol string, bins []float64, labels []string) (*Frame, error) {
	if len(bins) < 2 {
		return nil, errors.Newf(errors.CodeInvalidInput, "need at least two bin edges, got %d", len(bins))
	}
	if len(labels) != len(bins)-1 {
		return nil, errors.Newf(errors.CodeInvalidInput, "need %d labels for %d bin edges, got %d", len(bins)-1, len(bins), len(labels))
	}
	for i := 1; i < len(bins); i++ {
		if !(bins[i] > bins[i-1]) {
			return nil, errors.InvalidInput("bin edges must increase monotonically")
		}
	}
	idx := f.ColumnIndex(col)
	if idx < 0 {
		return nil, errors.NotFound(fmt.Sprintf("column %q", col))
	}

	out := f.Copy()
	target := out.ColumnIndex(newcol)
	if target < 0 {
		out.Columns = append(out.Columns, newcol)
		target = len(out.Columns) - 1
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], nil)
		}
	}

	for _, row := range out.Rows {
		label := ""
		if v, ok := toFloat(row[idx]); ok && !math.IsNaN(v) {
			for b := 0; b < len(labels); b++ {
				if v > bins[b] && v <= bins[b+1] {
					label = labels[b]
					break
				}
			}
		}
		row[target] = newcol + nonDigits.ReplaceAllString(label, "")
	}
	return out, nil
}
