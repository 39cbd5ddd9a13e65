package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores jobs in memory and is safe for concurrent use. Reads
// return copies, so a snapshot can never be torn by a concurrent write.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Job
	byOwner map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Job),
		byOwner: make(map[string][]string),
	}
}

// Create stores the job.
func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	r.byOwner[job.OwnerID] = append(r.byOwner[job.OwnerID], job.ID)
	return nil
}

// GetByID returns a job by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// ListByOwner returns an owner's jobs, newest first, with limit/offset.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, error) {
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
	ids := r.byOwner[ownerID]
	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Job{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Advance moves progress forward, completing the job at 100.
func (r *MemoryRepo) Advance(ctx context.Context, jobID, checkpoint string, progress int) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Terminal() {
		return job, ErrTerminal
	}
	if progress < job.Progress {
		return job, ErrProgressBackward
	}

	job.Progress = progress
	job.Checkpoint = checkpoint
	if progress >= 100 {
		job.Progress = 100
		job.Status = StatusCompleted
		now := time.Now().UTC()
		job.CompletedAt = &now
	} else {
		job.Status = StatusProcessing
	}
	r.byID[jobID] = job
	return job, nil
}

// Fail marks the job failed, keeping the last progress and checkpoint.
func (r *MemoryRepo) Fail(ctx context.Context, jobID, message string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Terminal() {
		return job, ErrTerminal
	}

	job.Status = StatusFailed
	job.Error = message
	now := time.Now().UTC()
	job.CompletedAt = &now
	r.byID[jobID] = job
	return job, nil
}
