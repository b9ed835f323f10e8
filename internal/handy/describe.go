package handy

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of one numeric column
type Summary struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std"` // nil for fewer than two values
	Min    float64  `json:"min"`
	P25    float64  `json:"p25"`
	Median float64  `json:"median"`
	P75    float64  `json:"p75"`
	Max    float64  `json:"max"`
}

// Describe summarizes every column whose non-nil values are all numeric. Columns without
// numeric values are skipped.
func Describe(f *Frame) []Summary {
	var summaries []Summary
	for j, col := range f.Columns {
		values, ok := numericColumn(f, j)
		if !ok {
			continue
		}
		summaries = append(summaries, summarize(col, values))
	}
	return summaries
}

func numericColumn(f *Frame, j int) ([]float64, bool) {
	values := make([]float64, 0, len(f.Rows))
	for _, row := range f.Rows {
		if row[j] == nil {
			continue
		}
		v, ok := toFloat(row[j])
		if !ok {
			return nil, false
		}
		if math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}

func summarize(col string, values []float64) Summary {
	data := stats.Float64Data(values)
	s := Summary{
		Column: col,
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
	}
	if len(values) > 1 {
		std := stat.StdDev(values, nil)
		s.Std = &std
	}
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Median, _ = stats.Median(data)

	if len(values) < 2 {
		s.P25, s.P75 = values[0], values[0]
		return s
	}
	if q, err := stats.Quartile(data); err == nil {
		s.P25, s.P75 = q.Q1, q.Q3
	}
	return s
}
