package workflows

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("workflow not found")

// ScheduleError reports an invalid trigger expression. The workflow stays
// unscheduled; the scheduler itself keeps running.
type ScheduleError struct {
	WorkflowID string
	Expr       string
	Reason     error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("workflow %s: invalid trigger expression %q: %v", e.WorkflowID, e.Expr, e.Reason)
}

func (e *ScheduleError) Unwrap() error {
	return e.Reason
}
