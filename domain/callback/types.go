package callback

import (
	"context"
	"fmt"
	"strings"
)

// ChangesKey is the reserved inputs key holding the change list of an invocation
const ChangesKey = "_changes"

// DependencyKind distinguishes what a dependency is used for in a registration
type DependencyKind string

const (
	KindTrigger   DependencyKind = "input"
	KindAuxiliary DependencyKind = "state"
	KindOutput    DependencyKind = "output"
)

// Dependency names one property of one UI component, e.g. ("btn", "n_clicks")
type Dependency struct {
	ComponentID string         `json:"id"`
	Property    string         `json:"property"`
	Kind        DependencyKind `json:"kind"`
}

// Trigger declares a dependency whose change runs the callback
func Trigger(componentID, property string) Dependency {
	return Dependency{ComponentID: componentID, Property: property, Kind: KindTrigger}
}

// Auxiliary declares a dependency read at invocation time without triggering it
func Auxiliary(componentID, property string) Dependency {
	return Dependency{ComponentID: componentID, Property: property, Kind: KindAuxiliary}
}

// Output declares a property the callback result is written to
func Output(componentID, property string) Dependency {
	return Dependency{ComponentID: componentID, Property: property, Kind: KindOutput}
}

// Key returns the dot-qualified key "<component>.<property>"
func (d Dependency) Key() string {
	return d.ComponentID + "." + d.Property
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s(%s)", d.Kind, d.Key())
}

// ParseDependency splits a "<component>.<property>" key. The property is everything after the last dot.
func ParseDependency(key string, kind DependencyKind) (Dependency, error) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return Dependency{}, fmt.Errorf("dependency key %q must look like <component>.<property>", key)
	}
	return Dependency{ComponentID: key[:idx], Property: key[idx+1:], Kind: kind}, nil
}

// Handler receives the merged inputs of one invocation and returns the value for the declared outputs
type Handler func(ctx context.Context, in *Inputs) (any, error)
