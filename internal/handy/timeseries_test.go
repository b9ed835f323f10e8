package handy

import (
	"testing"
	"time"

	"dashkit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_FillsGrid(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := NewFrame("load", "time")
	require.NoError(t, f.Append(1.5, t0.Add(15*time.Minute)))
	require.NoError(t, f.Append(3.0, t0.Add(45*time.Minute)))

	out, err := Complete(f, "time", t0, t0.Add(time.Hour), 15*time.Minute, FillNone)
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "load"}, out.Columns)
	require.Equal(t, 5, out.Len())
	load, _ := out.Column("load")
	assert.Equal(t, []any{nil, 1.5, nil, 3.0, nil}, load)

	first := out.Rows[0][0].(time.Time)
	assert.True(t, first.Equal(t0))
	assert.Equal(t, "CET", first.Location().String())
}

func TestComplete_ForwardAndBackwardFill(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := NewFrame("time", "v")
	require.NoError(t, f.Append(t0.Add(time.Hour), 7))

	forward, err := Complete(f, "time", t0, t0.Add(2*time.Hour), time.Hour, FillForward)
	require.NoError(t, err)
	v, _ := forward.Column("v")
	assert.Equal(t, []any{nil, 7, 7}, v)

	backward, err := Complete(f, "time", t0, t0.Add(2*time.Hour), time.Hour, FillBackward)
	require.NoError(t, err)
	v, _ = backward.Column("v")
	assert.Equal(t, []any{7, 7, nil}, v)
}

func TestComplete_Validation(t *testing.T) {
	t0 := time.Now()
	f := NewFrame("time")
	require.NoError(t, f.Append("not a time"))

	_, err := Complete(f, "time", t0, t0, 0, FillNone)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	_, err = Complete(f, "time", t0, t0.Add(-time.Hour), time.Minute, FillNone)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	_, err = Complete(f, "time", t0, t0, time.Minute, FillMethod("pad"))
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	_, err = Complete(f, "other", t0, t0, time.Minute, FillNone)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	_, err = Complete(f, "time", t0, t0, time.Minute, FillNone)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestAtm(t *testing.T) {
	// 10:37 UTC is 11:37 CET in winter
	ts := time.Date(2024, 1, 15, 10, 37, 12, 0, time.UTC)

	hour := Atm(ts, time.Hour, 0)
	assert.Equal(t, 11, hour.Hour())
	assert.Equal(t, 0, hour.Minute())
	assert.Equal(t, CET, hour.Location())

	assert.Equal(t, 13, Atm(ts, time.Hour, 2).Hour())
	assert.Equal(t, 30, Atm(ts, 15*time.Minute, 0).Minute())

	day := Atm(ts, 24*time.Hour, -1)
	assert.Equal(t, 14, day.Day())
	assert.Equal(t, 0, day.Hour())
}

func TestRtm(t *testing.T) {
	got := Rtm(0, time.Hour)

	assert.False(t, got.After(time.Now()))
	assert.Equal(t, 0, got.Minute())
}
