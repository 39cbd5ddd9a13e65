package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres. The monotonic-progress and
// terminal-immutability guards run inside the UPDATE's WHERE clause so a
// stale writer can never regress a row.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (id, owner_id, target_ref, status, progress, checkpoint, error_message, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.OwnerID,
		job.TargetRef,
		job.Status,
		job.Progress,
		job.Checkpoint,
		nullIfEmpty(job.Error),
		job.CreatedAt,
		job.CompletedAt,
	)
	return err
}

// GetByID returns a job by its ID.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	const query = `
SELECT id, owner_id, target_ref, status, progress, checkpoint, error_message, created_at, completed_at
FROM jobs WHERE id = $1`
	return scanJob(r.DB.QueryRowContext(ctx, query, jobID))
}

// ListByOwner returns an owner's jobs, newest first, with limit/offset.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, owner_id, target_ref, status, progress, checkpoint, error_message, created_at, completed_at
FROM jobs WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Advance moves progress forward, completing the job at 100.
func (r *PGRepo) Advance(ctx context.Context, jobID, checkpoint string, progress int) (Job, error) {
	if progress > 100 {
		progress = 100
	}
	status := StatusProcessing
	var completedAt *time.Time
	if progress == 100 {
		status = StatusCompleted
		now := time.Now().UTC()
		completedAt = &now
	}

	const query = `
UPDATE jobs
SET status = $2, progress = $3, checkpoint = $4, completed_at = COALESCE(completed_at, $5)
WHERE id = $1 AND status NOT IN ('completed', 'failed') AND progress <= $3
RETURNING id, owner_id, target_ref, status, progress, checkpoint, error_message, created_at, completed_at`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID, status, progress, checkpoint, completedAt))
	if errors.Is(err, ErrNotFound) {
		// The guarded update matched nothing: distinguish missing from
		// frozen or regressing rows.
		current, getErr := r.GetByID(ctx, jobID)
		if getErr != nil {
			return Job{}, getErr
		}
		if current.Terminal() {
			return current, ErrTerminal
		}
		return current, ErrProgressBackward
	}
	return job, err
}

// Fail marks the job failed, keeping the last progress and checkpoint.
func (r *PGRepo) Fail(ctx context.Context, jobID, message string) (Job, error) {
	const query = `
UPDATE jobs
SET status = 'failed', error_message = $2, completed_at = COALESCE(completed_at, $3)
WHERE id = $1 AND status NOT IN ('completed', 'failed')
RETURNING id, owner_id, target_ref, status, progress, checkpoint, error_message, created_at, completed_at`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID, message, time.Now().UTC()))
	if errors.Is(err, ErrNotFound) {
		current, getErr := r.GetByID(ctx, jobID)
		if getErr != nil {
			return Job{}, getErr
		}
		return current, ErrTerminal
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job         Job
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.TargetRef,
		&job.Status,
		&job.Progress,
		&job.Checkpoint,
		&errMsg,
		&job.CreatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		job.CompletedAt = &t
	}
	return job, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
