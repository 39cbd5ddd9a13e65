package workflows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/metrics"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// Runner is the orchestration entrypoint the scheduler fires. Satisfied by
// *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, query string, onUpdate pipeline.UpdateFunc) (pipeline.State, error)
}

// Scheduler owns the trigger registry: one cron entry per enabled workflow.
// Triggers fire on independent timers; one workflow's failure never blocks
// another's fire.
type Scheduler struct {
	Workflows  WorkflowRepo
	Executions ExecutionRepo
	Runner     Runner
	Actions    *ActionSet

	mu          sync.Mutex
	cron        *cron.Cron
	entries     map[string]cron.EntryID
	parser      cron.Parser
	initialized bool
}

// NewScheduler constructs a Scheduler with standard five-field cron parsing.
func NewScheduler(workflows WorkflowRepo, executions ExecutionRepo, runner Runner, actions *ActionSet) *Scheduler {
	if actions == nil {
		actions = NewActionSet()
	}
	return &Scheduler{
		Workflows:  workflows,
		Executions: executions,
		Runner:     runner,
		Actions:    actions,
		entries:    make(map[string]cron.EntryID),
		parser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Initialize loads every enabled workflow and registers its trigger. It is
// idempotent: calling it again without StopAll changes nothing.
func (s *Scheduler) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.cron = cron.New()
	s.initialized = true
	s.mu.Unlock()

	enabled, err := s.Workflows.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("load workflows: %w", err)
	}
	for _, wf := range enabled {
		if err := s.Schedule(ctx, wf); err != nil {
			// A bad expression must not stop the rest from registering.
			telemetry.Error("scheduler.register_failed", map[string]any{
				"workflow_id": wf.ID,
				"trigger":     wf.TriggerExpr,
				"error":       err.Error(),
			})
		}
	}

	s.mu.Lock()
	s.cron.Start()
	s.mu.Unlock()

	telemetry.Info("scheduler.initialized", map[string]any{
		"workflows": s.ScheduledCount(),
	})
	return nil
}

// Schedule validates the workflow's trigger and registers it, replacing any
// prior trigger for the same id. An invalid expression returns a
// *ScheduleError and leaves the workflow unscheduled.
func (s *Scheduler) Schedule(ctx context.Context, wf ScheduledWorkflow) error {
	schedule, err := s.parser.Parse(wf.TriggerExpr)
	if err != nil {
		return &ScheduleError{WorkflowID: wf.ID, Expr: wf.TriggerExpr, Reason: err}
	}

	s.mu.Lock()
	if s.cron == nil {
		s.cron = cron.New()
	}
	if old, ok := s.entries[wf.ID]; ok {
		s.cron.Remove(old)
	}
	workflowID := wf.ID
	s.entries[wf.ID] = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.fire(workflowID)
	}))
	s.mu.Unlock()

	next := schedule.Next(time.Now().UTC())
	if err := s.Workflows.RecordRun(ctx, wf.ID, valueOr(wf.LastRun), &next); err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.Error("scheduler.next_run_update_failed", map[string]any{
			"workflow_id": wf.ID,
			"error":       err.Error(),
		})
	}
	return nil
}

// Unschedule removes the trigger for a workflow id. Future fires stop; an
// in-flight run is not aborted.
func (s *Scheduler) Unschedule(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[workflowID]; ok {
		s.cron.Remove(entry)
		delete(s.entries, workflowID)
	}
}

// StopAll releases every timer. Safe to call even if Initialize never ran.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = nil
	s.entries = make(map[string]cron.EntryID)
	s.initialized = false
}

// ScheduledCount returns the number of registered triggers.
func (s *Scheduler) ScheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ExecuteNow runs a workflow immediately through the same path a scheduled
// fire takes and returns the finalized execution.
func (s *Scheduler) ExecuteNow(ctx context.Context, wf ScheduledWorkflow) (Execution, error) {
	return s.execute(ctx, wf)
}

// fire is the cron callback. Panics are contained here so one workflow
// cannot take down the scheduler's timer goroutines.
func (s *Scheduler) fire(workflowID string) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("scheduler.fire_panic", map[string]any{
				"workflow_id": workflowID,
				"error":       fmt.Sprint(r),
			})
		}
	}()

	ctx := context.Background()
	wf, err := s.Workflows.GetByID(ctx, workflowID)
	if err != nil {
		telemetry.Error("scheduler.fire_lookup_failed", map[string]any{
			"workflow_id": workflowID,
			"error":       err.Error(),
		})
		return
	}
	if !wf.Enabled {
		return
	}
	if _, err := s.execute(ctx, wf); err != nil {
		telemetry.Error("scheduler.fire_failed", map[string]any{
			"workflow_id": workflowID,
			"error":       err.Error(),
		})
	}
}

// execute records a running execution, awaits the full pipeline run, then
// finalizes the record. Post-run actions only follow a success and their
// failures never flip the status.
func (s *Scheduler) execute(ctx context.Context, wf ScheduledWorkflow) (Execution, error) {
	exec := Execution{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		StartTime:  time.Now().UTC(),
		Status:     ExecutionRunning,
	}
	// Persisted before the run: a crash mid-run leaves an observable
	// running record rather than nothing.
	if err := s.Executions.Create(ctx, exec); err != nil {
		return Execution{}, fmt.Errorf("persist execution: %w", err)
	}
	metrics.IncExecutionStarted()

	final, runErr := s.Runner.Run(ctx, wf.Query, nil)

	end := time.Now().UTC()
	exec.EndTime = &end
	exec.DurationMs = float64(end.Sub(exec.StartTime).Microseconds()) / 1000.0

	if runErr != nil || final.Error != "" {
		exec.Status = ExecutionFailed
		if runErr != nil {
			exec.Error = runErr.Error()
		} else {
			exec.Error = final.Error
		}
		if err := s.Executions.Finalize(ctx, exec); err != nil {
			telemetry.Error("scheduler.finalize_failed", map[string]any{
				"execution_id": exec.ID,
				"error":        err.Error(),
			})
		}
		metrics.IncExecutionFailed()
		telemetry.Info("workflow.execution", map[string]any{
			"workflow_id":  wf.ID,
			"execution_id": exec.ID,
			"status":       ExecutionFailed,
			"error":        exec.Error,
			"duration_ms":  exec.DurationMs,
		})
		return exec, nil
	}

	exec.Status = ExecutionSuccess
	exec.Result = &ExecutionResult{
		Summary:      final.Summary,
		InsightCount: len(final.Insights),
		DatasetNames: datasetNames(final),
	}
	if err := s.Executions.Finalize(ctx, exec); err != nil {
		telemetry.Error("scheduler.finalize_failed", map[string]any{
			"execution_id": exec.ID,
			"error":        err.Error(),
		})
	}
	metrics.IncExecutionCompleted()

	if err := s.Workflows.RecordRun(ctx, wf.ID, end, s.nextRunAfter(wf, end)); err != nil {
		telemetry.Error("scheduler.last_run_update_failed", map[string]any{
			"workflow_id": wf.ID,
			"error":       err.Error(),
		})
	}

	s.runActions(ctx, wf, exec, final)

	telemetry.Info("workflow.execution", map[string]any{
		"workflow_id":  wf.ID,
		"execution_id": exec.ID,
		"status":       ExecutionSuccess,
		"insights":     len(final.Insights),
		"duration_ms":  exec.DurationMs,
	})
	return exec, nil
}

// runActions executes the workflow's post-run actions in order with
// soft-failure semantics.
func (s *Scheduler) runActions(ctx context.Context, wf ScheduledWorkflow, exec Execution, final pipeline.State) {
	for _, name := range wf.Actions {
		action, ok := s.Actions.Get(name)
		if !ok {
			telemetry.Error("workflow.action_unknown", map[string]any{
				"workflow_id": wf.ID,
				"action":      name,
			})
			continue
		}
		if err := s.runAction(ctx, action, wf, exec, final); err != nil {
			telemetry.Error("workflow.action_failed", map[string]any{
				"workflow_id":  wf.ID,
				"execution_id": exec.ID,
				"action":       name,
				"error":        err.Error(),
			})
		}
	}
}

func (s *Scheduler) runAction(ctx context.Context, action Action, wf ScheduledWorkflow, exec Execution, final pipeline.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(ctx, wf, exec, final)
}

func (s *Scheduler) nextRunAfter(wf ScheduledWorkflow, after time.Time) *time.Time {
	schedule, err := s.parser.Parse(wf.TriggerExpr)
	if err != nil {
		return nil
	}
	next := schedule.Next(after)
	return &next
}

func datasetNames(final pipeline.State) []string {
	names := make([]string, 0, len(final.Datasets))
	for _, d := range final.Datasets {
		names = append(names, d.Name)
	}
	return names
}

func valueOr(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
