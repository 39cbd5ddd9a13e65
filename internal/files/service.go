package files

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/storage/object"
)

// Service contains business logic for uploaded files.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Upload saves the file to object storage and records it.
func (s *Service) Upload(ctx context.Context, ownerID, name string, r io.Reader) (File, error) {
	if ownerID == "" || name == "" {
		return File{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, ownerID, name, r)
	if err != nil {
		return File{}, err
	}

	f := File{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Name:       name,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Get returns a file owned by the given user.
func (s *Service) Get(ctx context.Context, ownerID, fileID string) (File, error) {
	if ownerID == "" || fileID == "" {
		return File{}, errors.New("ownerID and fileID are required")
	}
	return s.Repo.GetByID(ctx, ownerID, fileID)
}

// List returns an owner's files, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]File, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID is required")
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Open streams a file's content from object storage.
func (s *Service) Open(ctx context.Context, ownerID, fileID string) (io.ReadCloser, File, error) {
	f, err := s.Get(ctx, ownerID, fileID)
	if err != nil {
		return nil, File{}, err
	}
	body, err := s.Store.Open(ctx, f.StorageKey)
	if err != nil {
		return nil, File{}, err
	}
	return body, f, nil
}
