package dispatch

import (
	"reflect"

	"dashkit/domain/callback"
)

// ChangeDetector diffs successive input snapshots of one callback registration.
// It is not safe for concurrent use.
type ChangeDetector struct {
	// nil until the first Detect; an empty snapshot is still a valid baseline
	memory *callback.Inputs
}

// NewChangeDetector returns a detector with no baseline
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{}
}

// Detect returns the keys of snapshot whose value differs from the previous snapshot and
// makes snapshot the new baseline. The first call only records the baseline and reports
// nothing. Keys missing from snapshot are never reported, even if the baseline had them;
// keys the baseline never had are reported as changed.
func (d *ChangeDetector) Detect(snapshot *callback.Inputs) []string {
	if snapshot == nil {
		snapshot = callback.NewInputs()
	}
	current := snapshot.Clone()

	if d.memory == nil {
		d.memory = current
		return []string{}
	}

	changes := []string{}
	for _, key := range current.Keys() {
		previous, existed := d.memory.Get(key)
		value, _ := current.Get(key)
		if !existed || !reflect.DeepEqual(value, previous) {
			changes = append(changes, key)
		}
	}

	d.memory = current
	return changes
}

// Primed reports whether a baseline has been recorded
func (d *ChangeDetector) Primed() bool {
	return d.memory != nil
}

// Baseline returns a copy of the recorded snapshot, or nil before the first Detect
func (d *ChangeDetector) Baseline() *callback.Inputs {
	if d.memory == nil {
		return nil
	}
	return d.memory.Clone()
}
