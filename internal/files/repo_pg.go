package files

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new file record.
func (r *PGRepo) Create(ctx context.Context, f File) error {
	const query = `
INSERT INTO files (id, owner_id, name, mime_type, size_bytes, storage_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		f.ID,
		f.OwnerID,
		f.Name,
		f.MimeType,
		f.SizeBytes,
		f.StorageKey,
		f.CreatedAt,
	)
	return err
}

// GetByID returns a file owned by the given user.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, fileID string) (File, error) {
	const query = `
SELECT id, owner_id, name, mime_type, size_bytes, storage_key, created_at
FROM files WHERE id = $1 AND owner_id = $2`
	var f File
	err := r.DB.QueryRowContext(ctx, query, fileID, ownerID).Scan(
		&f.ID,
		&f.OwnerID,
		&f.Name,
		&f.MimeType,
		&f.SizeBytes,
		&f.StorageKey,
		&f.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, err
	}
	return f, nil
}

// ListByOwner returns an owner's files, newest first, with limit/offset.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]File, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, owner_id, name, mime_type, size_bytes, storage_key, created_at
FROM files WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []File{}
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.MimeType, &f.SizeBytes, &f.StorageKey, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
