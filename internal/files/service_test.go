package files

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type fakeStore struct {
	objects map[string]string
}

func (s *fakeStore) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := userId + "/" + fileName
	if s.objects == nil {
		s.objects = make(map[string]string)
	}
	s.objects[key] = string(body)
	return key, int64(len(body)), "text/csv", nil
}

func (s *fakeStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	body, ok := s.objects[storageKey]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestUploadStoresAndRecords(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo()}
	ctx := context.Background()

	f, err := svc.Upload(ctx, "user-1", "sales.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if f.ID == "" || f.StorageKey == "" {
		t.Fatalf("incomplete record: %+v", f)
	}
	if f.SizeBytes != 8 {
		t.Fatalf("unexpected size %d", f.SizeBytes)
	}

	got, err := svc.Get(ctx, "user-1", f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "sales.csv" {
		t.Fatalf("unexpected name %q", got.Name)
	}
}

func TestUploadValidatesInput(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo()}

	if _, err := svc.Upload(context.Background(), "", "sales.csv", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "user-1", "", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo()}
	ctx := context.Background()

	f, err := svc.Upload(ctx, "user-1", "sales.csv", strings.NewReader("a,b\n"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := svc.Get(ctx, "user-2", f.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
}

func TestOpenStreamsContent(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo()}
	ctx := context.Background()

	f, err := svc.Upload(ctx, "user-1", "sales.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	body, got, err := svc.Open(ctx, "user-1", f.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()
	if got.ID != f.ID {
		t.Fatalf("unexpected file %+v", got)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "a,b\n1,2\n" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := &Service{Store: &fakeStore{}, Repo: NewMemoryRepo()}
	ctx := context.Background()

	for _, name := range []string{"one.csv", "two.csv", "three.csv"} {
		if _, err := svc.Upload(ctx, "user-1", name, strings.NewReader("a\n")); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}

	page, err := svc.List(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2, got %d", len(page))
	}
}
