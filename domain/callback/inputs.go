package callback

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Inputs is the per-invocation view of trigger and auxiliary values, keyed both by
// bare component id and by "<component>.<property>", in insertion order
type Inputs struct {
	values *orderedmap.OrderedMap[string, any]
}

// NewInputs returns an empty inputs mapping
func NewInputs() *Inputs {
	return &Inputs{values: orderedmap.New[string, any]()}
}

// BuildInputs aligns positional values with dependencies. Bare component keys are written
// first (last writer wins on a repeated component), then dot-qualified keys.
func BuildInputs(deps []Dependency, args []any) *Inputs {
	in := NewInputs()
	for i, dep := range deps {
		in.Set(dep.ComponentID, args[i])
	}
	for i, dep := range deps {
		in.Set(dep.Key(), args[i])
	}
	return in
}

// Set stores a value. Re-setting an existing key keeps its original position.
func (in *Inputs) Set(key string, value any) {
	in.values.Set(key, value)
}

// Get returns the value stored under key
func (in *Inputs) Get(key string) (any, bool) {
	return in.values.Get(key)
}

// Value returns the value stored under key, or nil
func (in *Inputs) Value(key string) any {
	v, _ := in.values.Get(key)
	return v
}

// Has reports whether key is present
func (in *Inputs) Has(key string) bool {
	_, ok := in.values.Get(key)
	return ok
}

// Delete removes key
func (in *Inputs) Delete(key string) {
	in.values.Delete(key)
}

// Len returns the number of keys
func (in *Inputs) Len() int {
	return in.values.Len()
}

// Keys returns all keys in insertion order
func (in *Inputs) Keys() []string {
	keys := make([]string, 0, in.values.Len())
	for pair := in.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Clone returns a shallow copy; values are shared
func (in *Inputs) Clone() *Inputs {
	out := NewInputs()
	for pair := in.values.Oldest(); pair != nil; pair = pair.Next() {
		out.values.Set(pair.Key, pair.Value)
	}
	return out
}

// Changes returns the change list recorded under ChangesKey
func (in *Inputs) Changes() []string {
	changes, _ := in.Value(ChangesKey).([]string)
	return changes
}

// Changed reports whether key is in the change list
func (in *Inputs) Changed(key string) bool {
	for _, c := range in.Changes() {
		if c == key {
			return true
		}
	}
	return false
}

// String returns the value under key when it is a string, otherwise ""
func (in *Inputs) String(key string) string {
	s, _ := in.Value(key).(string)
	return s
}

// Map copies the inputs into a plain map
func (in *Inputs) Map() map[string]any {
	m := make(map[string]any, in.values.Len())
	for pair := in.values.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value
	}
	return m
}

// MarshalJSON encodes the inputs as a JSON object preserving key order
func (in *Inputs) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.values)
}
