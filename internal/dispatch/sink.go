package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"dashkit/domain/callback"
	"dashkit/ports"
)

// LogSink writes faults to a logger
type LogSink struct {
	Logger *log.Logger
}

// RecordFault logs the inputs snapshot and the trace of a failed callback
func (s LogSink) RecordFault(_ context.Context, fault *callback.Fault) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[Dispatch] %s() inputs:\n\n%s\n", fault.Callback, formatInputs(fault.Inputs))
	logger.Printf("[Dispatch] %s() EXCEPTION:\n\n%s\n", fault.Callback, fault.Trace)
	return nil
}

// MultiSink fans a fault out to several sinks and keeps going past failures
type MultiSink []ports.FaultSink

func (m MultiSink) RecordFault(ctx context.Context, fault *callback.Fault) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.RecordFault(ctx, fault); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func formatInputs(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "<unprintable inputs: " + err.Error() + ">"
	}
	return string(data)
}
