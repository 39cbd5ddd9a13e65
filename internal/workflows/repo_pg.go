package workflows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// PGWorkflowRepo implements WorkflowRepo using Postgres.
type PGWorkflowRepo struct {
	DB *sql.DB
}

// Save inserts or replaces the workflow.
func (r *PGWorkflowRepo) Save(ctx context.Context, wf ScheduledWorkflow) error {
	const query = `
INSERT INTO workflows (id, name, trigger_expr, enabled, query, actions, last_run, next_run, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    trigger_expr = EXCLUDED.trigger_expr,
    enabled = EXCLUDED.enabled,
    query = EXCLUDED.query,
    actions = EXCLUDED.actions,
    next_run = EXCLUDED.next_run`
	_, err := r.DB.ExecContext(ctx, query,
		wf.ID,
		wf.Name,
		wf.TriggerExpr,
		wf.Enabled,
		wf.Query,
		pq.Array(wf.Actions),
		wf.LastRun,
		wf.NextRun,
		wf.CreatedAt,
	)
	return err
}

// GetByID returns a workflow by its ID.
func (r *PGWorkflowRepo) GetByID(ctx context.Context, workflowID string) (ScheduledWorkflow, error) {
	const query = `
SELECT id, name, trigger_expr, enabled, query, actions, last_run, next_run, created_at
FROM workflows WHERE id = $1`
	return scanWorkflow(r.DB.QueryRowContext(ctx, query, workflowID))
}

// ListEnabled returns all enabled workflows.
func (r *PGWorkflowRepo) ListEnabled(ctx context.Context) ([]ScheduledWorkflow, error) {
	return r.list(ctx, `
SELECT id, name, trigger_expr, enabled, query, actions, last_run, next_run, created_at
FROM workflows WHERE enabled ORDER BY created_at DESC`)
}

// List returns all workflows, newest first.
func (r *PGWorkflowRepo) List(ctx context.Context) ([]ScheduledWorkflow, error) {
	return r.list(ctx, `
SELECT id, name, trigger_expr, enabled, query, actions, last_run, next_run, created_at
FROM workflows ORDER BY created_at DESC`)
}

func (r *PGWorkflowRepo) list(ctx context.Context, query string) ([]ScheduledWorkflow, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ScheduledWorkflow{}
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	return out, rows.Err()
}

// RecordRun updates lastRun/nextRun bookkeeping.
func (r *PGWorkflowRepo) RecordRun(ctx context.Context, workflowID string, lastRun time.Time, nextRun *time.Time) error {
	var lastRunArg any
	if !lastRun.IsZero() {
		lastRunArg = lastRun
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE workflows SET last_run = COALESCE($2, last_run), next_run = $3 WHERE id = $1`,
		workflowID, lastRunArg, nextRun)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetEnabled toggles a workflow.
func (r *PGWorkflowRepo) SetEnabled(ctx context.Context, workflowID string, enabled bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE workflows SET enabled = $2 WHERE id = $1`, workflowID, enabled)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a workflow.
func (r *PGWorkflowRepo) Delete(ctx context.Context, workflowID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, workflowID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// PGExecutionRepo implements ExecutionRepo using Postgres.
type PGExecutionRepo struct {
	DB *sql.DB
}

// Create persists a new execution record.
func (r *PGExecutionRepo) Create(ctx context.Context, exec Execution) error {
	resultPayload, err := marshalResult(exec.Result)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO executions (id, workflow_id, start_time, end_time, status, result, error_message, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.DB.ExecContext(ctx, query,
		exec.ID,
		exec.WorkflowID,
		exec.StartTime,
		exec.EndTime,
		exec.Status,
		resultPayload,
		nullIfEmpty(exec.Error),
		exec.DurationMs,
	)
	return err
}

// Finalize writes the terminal status. The status guard keeps already
// finalized rows immutable.
func (r *PGExecutionRepo) Finalize(ctx context.Context, exec Execution) error {
	resultPayload, err := marshalResult(exec.Result)
	if err != nil {
		return err
	}
	const query = `
UPDATE executions
SET end_time = $2, status = $3, result = $4, error_message = $5, duration_ms = $6
WHERE id = $1 AND status = 'running'`
	res, err := r.DB.ExecContext(ctx, query,
		exec.ID,
		exec.EndTime,
		exec.Status,
		resultPayload,
		nullIfEmpty(exec.Error),
		exec.DurationMs,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetByID returns an execution by its ID.
func (r *PGExecutionRepo) GetByID(ctx context.Context, executionID string) (Execution, error) {
	const query = `
SELECT id, workflow_id, start_time, end_time, status, result, error_message, duration_ms
FROM executions WHERE id = $1`
	return scanExecution(r.DB.QueryRowContext(ctx, query, executionID))
}

// ListByWorkflow returns a workflow's executions, newest first.
func (r *PGExecutionRepo) ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, workflow_id, start_time, end_time, status, result, error_message, duration_ms
FROM executions WHERE workflow_id = $1
ORDER BY start_time DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, workflowID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Execution{}
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (ScheduledWorkflow, error) {
	var (
		wf      ScheduledWorkflow
		lastRun sql.NullTime
		nextRun sql.NullTime
	)
	err := row.Scan(
		&wf.ID,
		&wf.Name,
		&wf.TriggerExpr,
		&wf.Enabled,
		&wf.Query,
		pq.Array(&wf.Actions),
		&lastRun,
		&nextRun,
		&wf.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ScheduledWorkflow{}, ErrNotFound
	}
	if err != nil {
		return ScheduledWorkflow{}, err
	}
	if lastRun.Valid {
		t := lastRun.Time.UTC()
		wf.LastRun = &t
	}
	if nextRun.Valid {
		t := nextRun.Time.UTC()
		wf.NextRun = &t
	}
	return wf, nil
}

func scanExecution(row rowScanner) (Execution, error) {
	var (
		exec       Execution
		endTime    sql.NullTime
		result     []byte
		errMsg     sql.NullString
		durationMs sql.NullFloat64
	)
	err := row.Scan(
		&exec.ID,
		&exec.WorkflowID,
		&exec.StartTime,
		&endTime,
		&exec.Status,
		&result,
		&errMsg,
		&durationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Execution{}, ErrNotFound
	}
	if err != nil {
		return Execution{}, err
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		exec.EndTime = &t
	}
	if len(result) > 0 {
		var parsed ExecutionResult
		if err := json.Unmarshal(result, &parsed); err == nil {
			exec.Result = &parsed
		}
	}
	if errMsg.Valid {
		exec.Error = errMsg.String
	}
	if durationMs.Valid {
		exec.DurationMs = durationMs.Float64
	}
	return exec, nil
}

func marshalResult(result *ExecutionResult) (any, error) {
	if result == nil {
		return nil, nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
