package datasets

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores datasets in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Dataset
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Dataset)}
}

// Upsert inserts or replaces the dataset keyed by name and source.
func (r *MemoryRepo) Upsert(ctx context.Context, d Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.byID {
		if existing.Name == d.Name && existing.Source == d.Source {
			delete(r.byID, id)
			break
		}
	}
	r.byID[d.ID] = d
	return nil
}

// GetByID returns a dataset by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, datasetID string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[datasetID]
	if !ok {
		return Dataset{}, ErrNotFound
	}
	return d, nil
}

// List returns datasets, newest first, with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Dataset, error) {
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
	out := make([]Dataset, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Dataset{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}
