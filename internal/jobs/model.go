package jobs

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is one asynchronous unit of intake work, identified by id and owned by
// exactly one background task. Progress is monotonic until a terminal status
// freezes the record.
type Job struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	TargetRef   string     `json:"targetRef"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Checkpoint  string     `json:"checkpoint,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Terminal reports whether the job has reached a final status.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
