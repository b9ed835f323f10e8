package migration

import (
	"context"

	"dashkit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db sqlx.ExtContext) error
	Version() string
}

// MigrationRunner creates the fault log schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db sqlx.ExtContext) error {
	for _, step := range r.steps() {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to %s", step.name))
		}
	}
	return nil
}

type step struct {
	name string
	sql  string
}

func (r *MigrationRunner) steps() []step {
	return []step{
		{"create callback_faults table", `
			CREATE TABLE IF NOT EXISTS callback_faults (
				id UUID PRIMARY KEY,
				callback VARCHAR(255) NOT NULL,
				message TEXT NOT NULL,
				trace TEXT NOT NULL,
				panicked BOOLEAN NOT NULL DEFAULT false,
				inputs JSONB,
				occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)
		`},
		{"create occurred_at index",
			"CREATE INDEX IF NOT EXISTS idx_callback_faults_occurred_at ON callback_faults(occurred_at DESC)"},
		{"create callback index",
			"CREATE INDEX IF NOT EXISTS idx_callback_faults_callback ON callback_faults(callback, occurred_at DESC)"},
	}
}
