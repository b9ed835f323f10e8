package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"

	"dashkit/domain/callback"
	"dashkit/domain/core"
	"dashkit/internal/errors"
)

// faultRow is the callback_faults table layout
type faultRow struct {
	ID         string    `db:"id"`
	Callback   string    `db:"callback"`
	Message    string    `db:"message"`
	Trace      string    `db:"trace"`
	Panicked   bool      `db:"panicked"`
	Inputs     []byte    `db:"inputs"`
	OccurredAt time.Time `db:"occurred_at"`
}

func toRow(f *callback.Fault) (*faultRow, error) {
	inputs, err := json.Marshal(f.Inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal inputs of fault %s", f.ID)
	}
	return &faultRow{
		ID:         f.ID.String(),
		Callback:   f.Callback,
		Message:    f.Message,
		Trace:      f.Trace,
		Panicked:   f.Panicked,
		Inputs:     inputs,
		OccurredAt: f.OccurredAt,
	}, nil
}

func (r *faultRow) toFault() (*callback.Fault, error) {
	var inputs map[string]any
	if len(r.Inputs) > 0 {
		if err := json.Unmarshal(r.Inputs, &inputs); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal inputs of fault %s", r.ID)
		}
	}
	return &callback.Fault{
		ID:         core.FaultID(r.ID),
		Callback:   r.Callback,
		Message:    r.Message,
		Trace:      r.Trace,
		Panicked:   r.Panicked,
		Inputs:     inputs,
		OccurredAt: r.OccurredAt,
	}, nil
}

// FaultRepository keeps handler faults in PostgreSQL
type FaultRepository struct {
	db *sqlx.DB
}

// NewFaultRepository creates a new fault repository
func NewFaultRepository(db *sqlx.DB) *FaultRepository {
	return &FaultRepository{db: db}
}

// RecordFault stores one fault; recording the same fault twice is a no-op
func (r *FaultRepository) RecordFault(ctx context.Context, fault *callback.Fault) error {
	row, err := toRow(fault)
	if err != nil {
		return err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO callback_faults (id, callback, message, trace, panicked, inputs, occurred_at)
		VALUES (:id, :callback, :message, :trace, :panicked, :inputs, :occurred_at)
		ON CONFLICT (id) DO NOTHING
	`, row)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to record fault %s", fault.ID))
	}
	return nil
}

// GetByID returns one fault
func (r *FaultRepository) GetByID(ctx context.Context, id core.FaultID) (*callback.Fault, error) {
	var row faultRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, callback, message, trace, panicked, inputs, occurred_at
		FROM callback_faults
		WHERE id = $1
	`, id.String())
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("fault " + id.String())
		}
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to get fault %s", id))
	}
	return row.toFault()
}

// ListRecent returns the newest faults first, optionally for one callback only
func (r *FaultRepository) ListRecent(ctx context.Context, callbackName string, limit int) ([]*callback.Fault, error) {
	if limit <= 0 {
		return nil, errors.InvalidInput("limit must be positive")
	}

	var rows []faultRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, callback, message, trace, panicked, inputs, occurred_at
		FROM callback_faults
		WHERE $1 = '' OR callback = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, callbackName, limit)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list faults"))
	}

	faults := make([]*callback.Fault, 0, len(rows))
	for i := range rows {
		f, err := rows[i].toFault()
		if err != nil {
			return nil, err
		}
		faults = append(faults, f)
	}
	return faults, nil
}

// DeleteOlderThan removes faults older than the given number of days
func (r *FaultRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, errors.InvalidInput("retention days must be positive")
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM callback_faults
		WHERE occurred_at < NOW() - make_interval(days => $1)
	`, days)
	if err != nil {
		return 0, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to delete old faults"))
	}
	return res.RowsAffected()
}
