package handy

import (
	"testing"

	"dashkit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixCols(t *testing.T) {
	got := FixCols([]string{"Price (EUR)", "price_eur", "Ümlaut", "", "  ", "Price(EUR)", "id"})

	assert.Equal(t, []string{"priceeur", "price_eur", "mlaut", "x", "x2", "priceeur2", "id"}, got)
	assert.Equal(t, []string{"a", "a2", "a3"}, FixCols([]string{"a", "a2", "a"}))
	assert.Equal(t, []string{"b2", "b", "b3", "b4"}, FixCols([]string{"b2", "b", "b", "B"}))
}

func TestFixFrameCols(t *testing.T) {
	f := NewFrame("A", "a")

	FixFrameCols(f)

	assert.Equal(t, []string{"a", "a2"}, f.Columns)
}

func TestHaveCols(t *testing.T) {
	f := NewFrame("a")
	require.NoError(t, f.Append("1"))
	require.NoError(t, f.Append("2"))

	toInt := func(v any) any {
		if s, ok := v.(string); ok {
			return len(s)
		}
		return v
	}
	out, err := HaveCols(f, []string{"a", "b", "c"}, 0.0, []func(any) any{toInt, nil, nil})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, out.Columns)
	assert.Equal(t, [][]any{{1, 0.0, 0.0}, {1, 0.0, 0.0}}, out.Rows)
	assert.Equal(t, []string{"a"}, f.Columns, "input frame is untouched")
	assert.Equal(t, "1", f.Rows[0][0])

	_, err = HaveCols(f, []string{"a"}, nil, []func(any) any{nil, nil})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestFlatCols(t *testing.T) {
	levels := [][]string{{"price", "mean"}, {"price", "max"}, {"id"}}

	assert.Equal(t, []string{"price_mean", "price_max", "id"}, FlatCols(levels, "_", false))
	assert.Equal(t, []string{"mean", "max", "id"}, FlatCols(levels, "_", true))
}

func TestCut(t *testing.T) {
	f := NewFrame("temp")
	for _, v := range []any{-5, 0.5, 10, 25.0, "n/a", nil} {
		require.NoError(t, f.Append(v))
	}

	out, err := Cut(f, "temp", "band", []float64{0, 10, 20, 30}, []string{"(0, 10]", "(10, 20]", "(20, 30]"})
	require.NoError(t, err)

	band, err := out.Column("band")
	require.NoError(t, err)
	assert.Equal(t, []any{"band", "band010", "band010", "band2030", "band", "band"}, band)
}

func TestCut_Validation(t *testing.T) {
	f := NewFrame("v")

	_, err := Cut(f, "v", "b", []float64{0}, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	_, err = Cut(f, "v", "b", []float64{0, 1}, []string{"a", "b"})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	_, err = Cut(f, "v", "b", []float64{1, 0}, []string{"a"})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	_, err = Cut(f, "missing", "b", []float64{0, 1}, []string{"a"})
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestFrame_RecordsRoundTrip(t *testing.T) {
	records := []map[string]any{{"b": 1, "a": "x"}, {"a": "y"}}

	f := FrameFromRecords(records)

	assert.Equal(t, []string{"a", "b"}, f.Columns)
	assert.Equal(t, [][]any{{"x", 1}, {"y", nil}}, f.Rows)
	assert.Equal(t, map[string]any{"a": "y", "b": nil}, f.Records()[1])
}

func TestFrame_Take(t *testing.T) {
	f := NewFrame("v")
	for i := 0; i < 4; i++ {
		require.NoError(t, f.Append(i))
	}

	out, err := f.Take([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{3}, {1}}, out.Rows)

	_, err = f.Take([]int{4})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	assert.True(t, errors.HasCode(f.Append(1, 2), errors.CodeInvalidInput))

	_, err = f.Column("missing")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestExpand(t *testing.T) {
	f := Expand(Dim{Name: "a", Values: []any{1, 2}}, Dim{Name: "b", Values: []any{3, 4}})

	assert.Equal(t, []string{"a", "b"}, f.Columns)
	assert.Equal(t, [][]any{{1, 3}, {1, 4}, {2, 3}, {2, 4}}, f.Rows)

	assert.Equal(t, 0, Expand(Dim{Name: "a", Values: []any{1}}, Dim{Name: "b"}).Len())
	assert.Equal(t, 0, Expand().Len())
}
