package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"dashkit/domain/callback"
	"dashkit/domain/core"
	"dashkit/internal/errors"
	"dashkit/ports"
)

// Config controls how an Adapter runs its handler
type Config struct {
	// Name identifies the handler in diagnostics
	Name string
	// SkipInitial makes the first invocation return NoUpdate without calling the handler
	SkipInitial bool
	// Debug logs inputs and outputs of every invocation
	Debug bool
	// Sink receives faults; LogSink when nil
	Sink ports.FaultSink
}

// Adapter turns positional callback arguments into one Inputs mapping for a handler,
// tracking changes between invocations and containing handler failures.
// An Adapter belongs to exactly one registration and is not safe for concurrent use.
type Adapter struct {
	name        string
	deps        []callback.Dependency
	triggers    int
	handler     callback.Handler
	skipInitial bool
	debug       bool
	sink        ports.FaultSink
	now         func() time.Time

	detector    *ChangeDetector
	initialized bool
}

// NewAdapter creates an adapter. Positional arguments are expected as triggers followed by auxiliaries.
func NewAdapter(triggers, auxiliary []callback.Dependency, handler callback.Handler, cfg Config) (*Adapter, error) {
	if handler == nil {
		return nil, errors.InvalidInput("callback handler is required")
	}
	if len(triggers) == 0 {
		return nil, errors.InvalidInput("at least one trigger is required")
	}

	deps := make([]callback.Dependency, 0, len(triggers)+len(auxiliary))
	deps = append(deps, triggers...)
	deps = append(deps, auxiliary...)

	name := cfg.Name
	if name == "" {
		name = "callback"
	}
	sink := cfg.Sink
	if sink == nil {
		sink = LogSink{}
	}

	return &Adapter{
		name:        name,
		deps:        deps,
		triggers:    len(triggers),
		handler:     handler,
		skipInitial: cfg.SkipInitial,
		debug:       cfg.Debug,
		sink:        sink,
		now:         time.Now,
		detector:    NewChangeDetector(),
	}, nil
}

// Name returns the handler name used in diagnostics
func (a *Adapter) Name() string { return a.name }

// Triggers returns the declared trigger dependencies
func (a *Adapter) Triggers() []callback.Dependency {
	return append([]callback.Dependency(nil), a.deps[:a.triggers]...)
}

// Auxiliary returns the declared auxiliary dependencies
func (a *Adapter) Auxiliary() []callback.Dependency {
	return append([]callback.Dependency(nil), a.deps[a.triggers:]...)
}

// Initialized reports whether the adapter has been invoked at least once
func (a *Adapter) Initialized() bool { return a.initialized }

// Invoke runs one invocation with one value per trigger and auxiliary, in declared order.
// Handler failures come back as a fault Result, never as an error; the error return is
// reserved for misaligned arguments, which leave the adapter state untouched.
func (a *Adapter) Invoke(ctx context.Context, args ...any) (callback.Result, error) {
	if len(args) != len(a.deps) {
		return callback.Result{}, errors.InvalidInput(fmt.Sprintf(
			"%s() expects %d arguments (%d triggers, %d auxiliary), got %d",
			a.name, len(a.deps), a.triggers, len(a.deps)-a.triggers, len(args)))
	}

	inputs := callback.BuildInputs(a.deps, args)
	inputs.Set(callback.ChangesKey, a.detector.Detect(inputs))

	if a.skipInitial && !a.initialized {
		a.initialized = true
		if a.debug {
			log.Printf("[Dispatch] %s() INIT:\n\n%s\n", a.name, formatInputs(inputs))
		}
		return callback.NoUpdate, nil
	}
	a.initialized = true

	value, fault := a.run(ctx, inputs)
	if fault != nil {
		if err := a.sink.RecordFault(ctx, fault); err != nil {
			log.Printf("[Dispatch] Failed to record fault %s for %s(): %v", fault.ID, a.name, err)
		}
		return callback.FaultResult(fault), nil
	}

	if a.debug {
		log.Printf("[Dispatch] %s() inputs:\n\n%s\n", a.name, formatInputs(inputs))
		log.Printf("[Dispatch] %s() outputs:\n\n%s\n", a.name, formatInputs(value))
	}
	return callback.ValueResult(value), nil
}

func (a *Adapter) run(ctx context.Context, in *callback.Inputs) (value any, fault *callback.Fault) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			fault = a.newFault(in, fmt.Sprintf("panic: %v", r), fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack()), true)
		}
	}()

	value, err := a.handler(ctx, in)
	if err != nil {
		return nil, a.newFault(in, err.Error(), errorTrace(err), false)
	}
	return value, nil
}

func (a *Adapter) newFault(in *callback.Inputs, message, trace string, panicked bool) *callback.Fault {
	return &callback.Fault{
		ID:         core.FaultID(core.NewID()),
		Callback:   a.name,
		Message:    message,
		Trace:      fmt.Sprintf("%s() EXCEPTION:\n\n%s", a.name, trace),
		Panicked:   panicked,
		Inputs:     in.Map(),
		OccurredAt: a.now(),
	}
}

// errorTrace renders an error and each error it wraps, one per line
func errorTrace(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "error: %v", err)
	for cause := stderrors.Unwrap(err); cause != nil; cause = stderrors.Unwrap(cause) {
		fmt.Fprintf(&b, "\n  caused by: %v", cause)
	}
	return b.String()
}
