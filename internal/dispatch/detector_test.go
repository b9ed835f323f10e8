package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dashkit/domain/callback"
)

func snapshot(kv ...any) *callback.Inputs {
	in := callback.NewInputs()
	for i := 0; i+1 < len(kv); i += 2 {
		in.Set(kv[i].(string), kv[i+1])
	}
	return in
}

func TestDetect_FirstCallReportsNothing(t *testing.T) {
	cases := map[string]*callback.Inputs{
		"empty":     snapshot(),
		"populated": snapshot("button", 0, "name", "x"),
		"nil":       nil,
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			d := NewChangeDetector()
			assert.False(t, d.Primed())

			changes := d.Detect(s)

			assert.NotNil(t, changes)
			assert.Empty(t, changes)
			assert.True(t, d.Primed())
		})
	}
}

func TestDetect_EmptyFirstSnapshotIsABaseline(t *testing.T) {
	d := NewChangeDetector()
	d.Detect(snapshot())

	changes := d.Detect(snapshot("button", 1))

	assert.ElementsMatch(t, []string{"button"}, changes)
}

func TestDetect_ReportsChangedKeys(t *testing.T) {
	d := NewChangeDetector()
	d.Detect(snapshot("button", 0, "name", "x", "rows", []any{1, 2}))

	changes := d.Detect(snapshot("button", 1, "name", "x", "rows", []any{1, 3}))

	assert.ElementsMatch(t, []string{"button", "rows"}, changes)
}

func TestDetect_SameSnapshotTwice(t *testing.T) {
	d := NewChangeDetector()
	s := snapshot("button", 1, "nested", map[string]any{"a": []any{1.5}})

	d.Detect(s)
	assert.Empty(t, d.Detect(s))
	assert.Empty(t, d.Detect(snapshot("button", 1, "nested", map[string]any{"a": []any{1.5}})))
}

func TestDetect_RemovedKeysAreNotReported(t *testing.T) {
	d := NewChangeDetector()
	d.Detect(snapshot("button", 0, "name", "x"))

	changes := d.Detect(snapshot("button", 0))

	assert.Empty(t, changes)
}

func TestDetect_BaselineIsReplacedNotMerged(t *testing.T) {
	d := NewChangeDetector()
	d.Detect(snapshot("button", 0, "name", "x"))
	d.Detect(snapshot("button", 0))

	// "name" was dropped from the baseline, so it comes back as new
	changes := d.Detect(snapshot("button", 0, "name", "x"))

	assert.ElementsMatch(t, []string{"name"}, changes)
}

func TestDetect_NoTypeCoercion(t *testing.T) {
	d := NewChangeDetector()
	d.Detect(snapshot("n", 1))

	assert.ElementsMatch(t, []string{"n"}, d.Detect(snapshot("n", 1.0)))
	assert.ElementsMatch(t, []string{"n"}, d.Detect(snapshot("n", "1")))
	assert.Empty(t, d.Detect(snapshot("n", "1")))
}

func TestDetect_BaselineIsACopy(t *testing.T) {
	d := NewChangeDetector()
	s := snapshot("button", 0)
	d.Detect(s)

	s.Set("button", 5)
	s.Set(callback.ChangesKey, []string{"button"})

	baseline := d.Baseline()
	assert.Equal(t, 0, baseline.Value("button"))
	assert.False(t, baseline.Has(callback.ChangesKey))
}

func TestDetect_OrderFollowsSnapshot(t *testing.T) {
	d := NewChangeDetector()
	d.Detect(snapshot("c", 0, "a", 0, "b", 0))

	changes := d.Detect(snapshot("c", 1, "a", 1, "b", 1))

	assert.Equal(t, []string{"c", "a", "b"}, changes)
}
