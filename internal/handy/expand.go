package handy

// Dim is one named axis of values for Expand
type Dim struct {
	Name   string
	Values []any
}

// Expand builds the cartesian product of the dims, e.g. a:[1,2] b:[3,4] gives rows
// (1,3) (1,4) (2,3) (2,4). The last dim varies fastest.
func Expand(dims ...Dim) *Frame {
	columns := make([]string, len(dims))
	for i, d := range dims {
		columns[i] = d.Name
	}
	f := NewFrame(columns...)
	if len(dims) == 0 {
		return f
	}

	total := 1
	for _, d := range dims {
		total *= len(d.Values)
	}
	f.Rows = make([][]any, 0, total)

	idx := make([]int, len(dims))
	for n := 0; n < total; n++ {
		row := make([]any, len(dims))
		for i, d := range dims {
			row[i] = d.Values[idx[i]]
		}
		f.Rows = append(f.Rows, row)

		for i := len(dims) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(dims[i].Values) {
				break
			}
			idx[i] = 0
		}
	}
	return f
}
