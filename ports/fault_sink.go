package ports

import (
	"context"

	"dashkit/domain/callback"
	"dashkit/domain/core"
)

// FaultSink receives diagnostics for callbacks whose handler failed
type FaultSink interface {
	RecordFault(ctx context.Context, fault *callback.Fault) error
}

// FaultRepository stores faults for later inspection
type FaultRepository interface {
	FaultSink

	GetByID(ctx context.Context, id core.FaultID) (*callback.Fault, error)
	ListRecent(ctx context.Context, callbackName string, limit int) ([]*callback.Fault, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
