package datasets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or replaces the dataset keyed by name and source.
func (r *PGRepo) Upsert(ctx context.Context, d Dataset) error {
	const query = `
INSERT INTO datasets (id, name, source, description, columns, row_count, tags, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (name, source) DO UPDATE
SET description = EXCLUDED.description,
    columns = EXCLUDED.columns,
    row_count = EXCLUDED.row_count,
    tags = EXCLUDED.tags`
	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.Name,
		d.Source,
		d.Description,
		pq.Array(d.Columns),
		d.RowCount,
		pq.Array(d.Tags),
		d.CreatedAt,
	)
	return err
}

// GetByID returns a dataset by its ID.
func (r *PGRepo) GetByID(ctx context.Context, datasetID string) (Dataset, error) {
	const query = `
SELECT id, name, source, description, columns, row_count, tags, created_at
FROM datasets WHERE id = $1`
	return scanDataset(r.DB.QueryRowContext(ctx, query, datasetID))
}

// List returns datasets, newest first, with limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, name, source, description, columns, row_count, tags, created_at
FROM datasets
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Dataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (Dataset, error) {
	var (
		d    Dataset
		desc sql.NullString
	)
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Source,
		&desc,
		pq.Array(&d.Columns),
		&d.RowCount,
		pq.Array(&d.Tags),
		&d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, ErrNotFound
	}
	if err != nil {
		return Dataset{}, err
	}
	if desc.Valid {
		d.Description = desc.String
	}
	return d, nil
}
