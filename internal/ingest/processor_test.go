package ingest

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/datasets"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/files"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/jobs"
)

// fakeStore keeps object bodies in a map keyed by storage key.
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
		return nil, files.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func newTestProcessor(t *testing.T) (*Processor, files.File) {
	t.Helper()
	fileSvc := &files.Service{Store: &fakeStore{}, Repo: files.NewMemoryRepo()}
	datasetSvc := &datasets.Service{Repo: datasets.NewMemoryRepo()}

	csv := "region,revenue\neast,1200\nwest,900\nsouth,700\n"
	f, err := fileSvc.Upload(context.Background(), "user-1", "quarterly_sales.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	return &Processor{Files: fileSvc, Parser: DelimitedParser{}, Datasets: datasetSvc}, f
}

func TestProcessRegistersDataset(t *testing.T) {
	p, f := newTestProcessor(t)
	ctx := context.Background()

	var checkpoints []string
	var progress []int
	advance := func(checkpoint string, pct int) error {
		checkpoints = append(checkpoints, checkpoint)
		progress = append(progress, pct)
		return nil
	}

	job := jobs.Job{ID: "job-1", OwnerID: "user-1", TargetRef: f.ID}
	if err := p.Process(ctx, job, advance); err != nil {
		t.Fatalf("process: %v", err)
	}

	wantCheckpoints := []string{CheckpointFetch, CheckpointParse, CheckpointProfile, CheckpointRegister}
	wantProgress := []int{10, 40, 70, 90}
	if len(checkpoints) != len(wantCheckpoints) {
		t.Fatalf("checkpoints = %v", checkpoints)
	}
	for i := range wantCheckpoints {
		if checkpoints[i] != wantCheckpoints[i] || progress[i] != wantProgress[i] {
			t.Fatalf("step %d = %s/%d, want %s/%d", i, checkpoints[i], progress[i], wantCheckpoints[i], wantProgress[i])
		}
	}

	registered, err := p.Datasets.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list datasets: %v", err)
	}
	if len(registered) != 1 {
		t.Fatalf("expected one dataset, got %d", len(registered))
	}
	d := registered[0]
	if d.Name != "quarterly_sales" {
		t.Fatalf("unexpected name %q", d.Name)
	}
	if d.Source != "upload:"+f.ID {
		t.Fatalf("unexpected source %q", d.Source)
	}
	if d.RowCount != 3 || len(d.Columns) != 2 {
		t.Fatalf("unexpected profile: rows=%d columns=%v", d.RowCount, d.Columns)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "region" || d.Tags[1] != "revenue" {
		t.Fatalf("unexpected tags %v", d.Tags)
	}
}

func TestProcessMissingFileFails(t *testing.T) {
	p, _ := newTestProcessor(t)

	advance := func(checkpoint string, pct int) error { return nil }
	job := jobs.Job{ID: "job-1", OwnerID: "user-1", TargetRef: "no-such-file"}
	if err := p.Process(context.Background(), job, advance); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProcessEmptyFileFails(t *testing.T) {
	fileSvc := &files.Service{Store: &fakeStore{}, Repo: files.NewMemoryRepo()}
	datasetSvc := &datasets.Service{Repo: datasets.NewMemoryRepo()}
	f, err := fileSvc.Upload(context.Background(), "user-1", "empty.csv", strings.NewReader(""))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	p := &Processor{Files: fileSvc, Parser: DelimitedParser{}, Datasets: datasetSvc}

	advance := func(checkpoint string, pct int) error { return nil }
	job := jobs.Job{ID: "job-1", OwnerID: "user-1", TargetRef: f.ID}
	if err := p.Process(context.Background(), job, advance); err == nil {
		t.Fatal("expected error for empty file")
	}

	registered, err := datasetSvc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(registered) != 0 {
		t.Fatalf("no dataset should be registered, got %d", len(registered))
	}
}

func TestProcessStopsWhenAdvanceFails(t *testing.T) {
	p, f := newTestProcessor(t)

	advance := func(checkpoint string, pct int) error {
		if checkpoint == CheckpointParse {
			return jobs.ErrTerminal
		}
		return nil
	}
	job := jobs.Job{ID: "job-1", OwnerID: "user-1", TargetRef: f.ID}
	if err := p.Process(context.Background(), job, advance); err == nil {
		t.Fatal("expected error when advance fails")
	}

	registered, err := p.Datasets.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(registered) != 0 {
		t.Fatalf("no dataset should be registered, got %d", len(registered))
	}
}
