package workflows

import "time"

const (
	ExecutionRunning = "running"
	ExecutionSuccess = "success"
	ExecutionFailed  = "failed"
)

// ScheduledWorkflow is the durable configuration for a recurring analysis.
type ScheduledWorkflow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	TriggerExpr string     `json:"triggerExpr"`
	Enabled     bool       `json:"enabled"`
	Query       string     `json:"query"`
	Actions     []string   `json:"actions"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ExecutionResult captures what a successful run produced.
type ExecutionResult struct {
	Summary      string   `json:"summary"`
	InsightCount int      `json:"insightCount"`
	DatasetNames []string `json:"datasetNames"`
}

// Execution records one firing of a workflow, scheduled or manual. Once it
// reaches a terminal status the record is never mutated again.
type Execution struct {
	ID         string           `json:"id"`
	WorkflowID string           `json:"workflowId"`
	StartTime  time.Time        `json:"startTime"`
	EndTime    *time.Time       `json:"endTime,omitempty"`
	Status     string           `json:"status"`
	Result     *ExecutionResult `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs float64          `json:"durationMs,omitempty"`
}
