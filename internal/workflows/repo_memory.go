package workflows

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryWorkflowRepo stores workflows in memory and is safe for concurrent use.
type MemoryWorkflowRepo struct {
	mu   sync.RWMutex
	byID map[string]ScheduledWorkflow
}

// NewMemoryWorkflowRepo constructs a MemoryWorkflowRepo.
func NewMemoryWorkflowRepo() *MemoryWorkflowRepo {
	return &MemoryWorkflowRepo{byID: make(map[string]ScheduledWorkflow)}
}

// Save inserts or replaces the workflow.
func (r *MemoryWorkflowRepo) Save(ctx context.Context, wf ScheduledWorkflow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[wf.ID] = wf
	return nil
}

// GetByID returns a workflow by its ID.
func (r *MemoryWorkflowRepo) GetByID(ctx context.Context, workflowID string) (ScheduledWorkflow, error) {
	if err := ctx.Err(); err != nil {
		return ScheduledWorkflow{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	wf, ok := r.byID[workflowID]
	if !ok {
		return ScheduledWorkflow{}, ErrNotFound
	}
	return wf, nil
}

// ListEnabled returns all enabled workflows.
func (r *MemoryWorkflowRepo) ListEnabled(ctx context.Context) ([]ScheduledWorkflow, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []ScheduledWorkflow{}
	for _, wf := range all {
		if wf.Enabled {
			out = append(out, wf)
		}
	}
	return out, nil
}

// List returns all workflows, newest first.
func (r *MemoryWorkflowRepo) List(ctx context.Context) ([]ScheduledWorkflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]ScheduledWorkflow, 0, len(r.byID))
	for _, wf := range r.byID {
		out = append(out, wf)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// RecordRun updates lastRun/nextRun bookkeeping.
func (r *MemoryWorkflowRepo) RecordRun(ctx context.Context, workflowID string, lastRun time.Time, nextRun *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.byID[workflowID]
	if !ok {
		return ErrNotFound
	}
	if !lastRun.IsZero() {
		wf.LastRun = &lastRun
	}
	wf.NextRun = nextRun
	r.byID[workflowID] = wf
	return nil
}

// SetEnabled toggles a workflow.
func (r *MemoryWorkflowRepo) SetEnabled(ctx context.Context, workflowID string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.byID[workflowID]
	if !ok {
		return ErrNotFound
	}
	wf.Enabled = enabled
	r.byID[workflowID] = wf
	return nil
}

// Delete removes a workflow.
func (r *MemoryWorkflowRepo) Delete(ctx context.Context, workflowID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[workflowID]; !ok {
		return ErrNotFound
	}
	delete(r.byID, workflowID)
	return nil
}

// MemoryExecutionRepo stores executions in memory and is safe for
// concurrent use. Terminal records are immutable.
type MemoryExecutionRepo struct {
	mu         sync.RWMutex
	byID       map[string]Execution
	byWorkflow map[string][]string
}

// NewMemoryExecutionRepo constructs a MemoryExecutionRepo.
func NewMemoryExecutionRepo() *MemoryExecutionRepo {
	return &MemoryExecutionRepo{
		byID:       make(map[string]Execution),
		byWorkflow: make(map[string][]string),
	}
}

// Create persists a new execution record.
func (r *MemoryExecutionRepo) Create(ctx context.Context, exec Execution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[exec.ID] = exec
	r.byWorkflow[exec.WorkflowID] = append(r.byWorkflow[exec.WorkflowID], exec.ID)
	return nil
}

// Finalize writes the terminal status of an execution.
func (r *MemoryExecutionRepo) Finalize(ctx context.Context, exec Execution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[exec.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Status != ExecutionRunning {
		return errors.New("execution already finalized")
	}
	r.byID[exec.ID] = exec
	return nil
}

// GetByID returns an execution by its ID.
func (r *MemoryExecutionRepo) GetByID(ctx context.Context, executionID string) (Execution, error) {
	if err := ctx.Err(); err != nil {
		return Execution{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.byID[executionID]
	if !ok {
		return Execution{}, ErrNotFound
	}
	return exec, nil
}

// ListByWorkflow returns a workflow's executions, newest first.
func (r *MemoryExecutionRepo) ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	ids := r.byWorkflow[workflowID]
	out := make([]Execution, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})

	if offset >= len(out) {
		return []Execution{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}
