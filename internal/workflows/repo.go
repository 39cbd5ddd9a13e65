package workflows

import (
	"context"
	"time"
)

// WorkflowRepo defines persistence operations for scheduled workflows.
type WorkflowRepo interface {
	Save(ctx context.Context, wf ScheduledWorkflow) error
	GetByID(ctx context.Context, workflowID string) (ScheduledWorkflow, error)
	ListEnabled(ctx context.Context) ([]ScheduledWorkflow, error)
	List(ctx context.Context) ([]ScheduledWorkflow, error)
	// RecordRun updates the run bookkeeping without touching configuration.
	RecordRun(ctx context.Context, workflowID string, lastRun time.Time, nextRun *time.Time) error
	SetEnabled(ctx context.Context, workflowID string, enabled bool) error
	Delete(ctx context.Context, workflowID string) error
}

// ExecutionRepo defines persistence operations for executions.
type ExecutionRepo interface {
	// Create persists the running record at fire time, before the run.
	Create(ctx context.Context, exec Execution) error
	// Finalize writes the terminal status. It must not modify a record that
	// is already terminal.
	Finalize(ctx context.Context, exec Execution) error
	GetByID(ctx context.Context, executionID string) (Execution, error)
	ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]Execution, error)
}
