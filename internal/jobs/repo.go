package jobs

import "context"

// Repo defines persistence operations for jobs. Implementations must return
// atomic snapshots on reads and enforce the monotonic-progress and
// terminal-immutability invariants on writes.
type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error)
	// Advance moves the job to the given checkpoint and progress. Progress
	// may not decrease; 100 completes the job and freezes CompletedAt.
	Advance(ctx context.Context, jobID, checkpoint string, progress int) (Job, error)
	// Fail marks the job failed, freezing progress at the last checkpoint.
	Fail(ctx context.Context, jobID, message string) (Job, error)
}
