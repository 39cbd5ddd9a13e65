package files

import "context"

// Repo defines persistence operations for files.
type Repo interface {
	Create(ctx context.Context, f File) error
	GetByID(ctx context.Context, ownerID, fileID string) (File, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]File, error)
}
