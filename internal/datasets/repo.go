package datasets

import "context"

// Repo defines persistence operations for the dataset catalog.
type Repo interface {
	// Upsert inserts the dataset or replaces an existing one with the same
	// name and source.
	Upsert(ctx context.Context, d Dataset) error
	GetByID(ctx context.Context, datasetID string) (Dataset, error)
	List(ctx context.Context, limit, offset int) ([]Dataset, error)
}
