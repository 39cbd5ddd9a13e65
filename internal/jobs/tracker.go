package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/queue"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/metrics"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// AdvanceFunc records one checkpoint of progress for the owning task.
type AdvanceFunc func(checkpoint string, progress int) error

// Processor performs the actual work behind a job, reporting progress
// through advance. Returning an error fails the job; there is no retry.
type Processor interface {
	Process(ctx context.Context, job Job, advance AdvanceFunc) error
}

// Tracker registers asynchronous work and tracks its lifecycle. Each job is
// mutated by exactly one background task; reads can happen concurrently.
type Tracker struct {
	Repo      Repo
	Processor Processor
	// Queue, when set, dispatches work to the worker deployment instead of
	// running it in-process.
	Queue queue.Client
}

// Create registers a pending job and schedules its work without blocking
// the caller. A second Create for the same owner and target starts an
// independent job; there is no deduplication.
func (t *Tracker) Create(ctx context.Context, ownerID, targetRef string) (Job, error) {
	if ownerID == "" || targetRef == "" {
		return Job{}, errors.New("ownerID and targetRef are required")
	}

	job := Job{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		TargetRef: targetRef,
		Status:    StatusPending,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	metrics.IncJobCreated()

	if t.Queue != nil {
		msg := queue.Message{
			JobID:      job.ID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := t.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("job.enqueue_failed", map[string]any{
				"job_id": job.ID,
				"error":  err.Error(),
			})
			// Fall back to in-process execution so the job is not stranded
			// in pending.
			go t.runOwned(context.Background(), job)
		}
		return job, nil
	}

	go t.runOwned(context.Background(), job)
	return job, nil
}

// GetStatus returns the current snapshot of a job.
func (t *Tracker) GetStatus(ctx context.Context, jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, errors.New("jobID is required")
	}
	return t.Repo.GetByID(ctx, jobID)
}

// ListByOwner returns an owner's jobs, newest first.
func (t *Tracker) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID is required")
	}
	return t.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Process runs the work for an already-registered job. It is the entrypoint
// for queue consumers, which own the job from this point on.
func (t *Tracker) Process(ctx context.Context, jobID string) error {
	job, err := t.Repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return nil
	}
	return t.runOwned(ctx, job)
}

// runOwned is the single writer for its job: every status mutation after
// Create goes through here.
func (t *Tracker) runOwned(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			t.fail(ctx, job, err)
		}
	}()

	started := time.Now().UTC()
	advance := func(checkpoint string, progress int) error {
		updated, advErr := t.Repo.Advance(ctx, job.ID, checkpoint, progress)
		if advErr != nil {
			return fmt.Errorf("advance %s to %d: %w", checkpoint, progress, advErr)
		}
		fields := jobLogFields(ctx, job)
		fields["checkpoint"] = checkpoint
		fields["progress"] = updated.Progress
		fields["status"] = updated.Status
		telemetry.Info("job.progress", fields)
		return nil
	}

	if err = t.Processor.Process(ctx, job, advance); err != nil {
		t.fail(ctx, job, err)
		return err
	}
	if err = advance("done", 100); err != nil {
		t.fail(ctx, job, err)
		return err
	}

	metrics.IncJobCompleted()
	fields := jobLogFields(ctx, job)
	fields["status"] = StatusCompleted
	fields["status_transition"] = "processing->completed"
	fields["duration_ms"] = float64(time.Since(started).Microseconds()) / 1000.0
	telemetry.Info("job.status", fields)
	return nil
}

// jobLogFields carries the request id from queue messages through to the
// job lifecycle logs so API and worker lines correlate.
func jobLogFields(ctx context.Context, job Job) map[string]any {
	fields := map[string]any{
		"job_id":   job.ID,
		"owner_id": job.OwnerID,
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func (t *Tracker) fail(ctx context.Context, job Job, cause error) {
	msg := sanitizeError(cause)
	if _, failErr := t.Repo.Fail(ctx, job.ID, msg); failErr != nil {
		telemetry.Error("job.fail_update_failed", map[string]any{
			"job_id": job.ID,
			"error":  failErr.Error(),
			"cause":  msg,
		})
	}
	metrics.IncJobFailed()
	fields := jobLogFields(ctx, job)
	fields["status"] = StatusFailed
	fields["status_transition"] = "processing->failed"
	fields["error"] = msg
	telemetry.Info("job.status", fields)
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
