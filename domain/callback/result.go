package callback

import (
	"fmt"
	"time"

	"dashkit/domain/core"
)

// ResultKind tags what an invocation produced
type ResultKind int

const (
	ResultValue ResultKind = iota
	ResultNoUpdate
	ResultFault
)

func (k ResultKind) String() string {
	switch k {
	case ResultValue:
		return "value"
	case ResultNoUpdate:
		return "no_update"
	case ResultFault:
		return "fault"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the outcome of one adapter invocation
type Result struct {
	Kind  ResultKind
	Value any
	Fault *Fault
}

// Fault describes a handler that returned an error or panicked
type Fault struct {
	ID         core.FaultID   `json:"id"`
	Callback   string         `json:"callback"`
	Message    string         `json:"message"`
	Trace      string         `json:"trace"`
	Panicked   bool           `json:"panicked"`
	Inputs     map[string]any `json:"inputs"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s(): %s", f.Callback, f.Message)
}

// NoUpdate is the result of a skipped invocation; hosts must leave outputs untouched
var NoUpdate = Result{Kind: ResultNoUpdate}

// ValueResult wraps a handler value
func ValueResult(v any) Result {
	return Result{Kind: ResultValue, Value: v}
}

// FaultResult wraps a fault
func FaultResult(f *Fault) Result {
	return Result{Kind: ResultFault, Fault: f}
}

// IsNoUpdate reports whether the host should leave outputs untouched
func (r Result) IsNoUpdate() bool { return r.Kind == ResultNoUpdate }

// IsFault reports whether the handler failed
func (r Result) IsFault() bool { return r.Kind == ResultFault }

// Output flattens the result the way a host without an error channel sees it:
// the value, nil for no-update, or the fault trace in place of the value.
func (r Result) Output() any {
	switch r.Kind {
	case ResultFault:
		return r.Fault.Trace
	case ResultNoUpdate:
		return nil
	default:
		return r.Value
	}
}
