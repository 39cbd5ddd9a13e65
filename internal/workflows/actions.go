package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/queue"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// Action is one named post-run side effect. Actions run in workflow order
// after a successful execution; a failure is logged and never affects the
// execution record or the remaining actions.
type Action func(ctx context.Context, wf ScheduledWorkflow, exec Execution, final pipeline.State) error

// ActionSet is the registry of known action names.
type ActionSet struct {
	byName map[string]Action
}

// NewActionSet constructs an empty registry.
func NewActionSet() *ActionSet {
	return &ActionSet{byName: make(map[string]Action)}
}

// Register adds a named action, replacing any prior registration.
func (a *ActionSet) Register(name string, action Action) {
	a.byName[name] = action
}

// Get returns the action for a name.
func (a *ActionSet) Get(name string) (Action, bool) {
	action, ok := a.byName[name]
	return action, ok
}

// LogSummaryAction writes the run summary to the structured log.
func LogSummaryAction() Action {
	return func(ctx context.Context, wf ScheduledWorkflow, exec Execution, final pipeline.State) error {
		telemetry.Info("workflow.summary", map[string]any{
			"workflow_id":  wf.ID,
			"execution_id": exec.ID,
			"summary":      final.Summary,
			"insights":     len(final.Insights),
		})
		return nil
	}
}

// PublishInsightsAction forwards the run's insight payload to the queue for
// downstream consumers.
func PublishInsightsAction(client queue.Client) Action {
	return func(ctx context.Context, wf ScheduledWorkflow, exec Execution, final pipeline.State) error {
		if client == nil {
			return fmt.Errorf("queue not configured")
		}
		msg := queue.Message{
			JobID:      exec.ID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		return client.Send(ctx, msg)
	}
}
