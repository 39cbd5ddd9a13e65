package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fnProcessor func(ctx context.Context, job Job, advance AdvanceFunc) error

func (f fnProcessor) Process(ctx context.Context, job Job, advance AdvanceFunc) error {
	return f(ctx, job, advance)
}

func waitTerminal(t *testing.T, repo Repo, jobID string) Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := repo.GetByID(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal status", jobID)
	return Job{}
}

func TestTrackerCreateRunsToCompletion(t *testing.T) {
	repo := NewMemoryRepo()
	tracker := &Tracker{
		Repo: repo,
		Processor: fnProcessor(func(ctx context.Context, job Job, advance AdvanceFunc) error {
			if err := advance("fetch", 25); err != nil {
				return err
			}
			return advance("register", 90)
		}),
	}

	job, err := tracker.Create(context.Background(), "user-1", "file-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != StatusPending || job.Progress != 0 {
		t.Fatalf("new job not pending at zero: %+v", job)
	}

	final := waitTerminal(t, repo, job.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.Error)
	}
	if final.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", final.Progress)
	}
	if final.CompletedAt == nil {
		t.Fatalf("completedAt not set")
	}
}

func TestTrackerProcessorErrorFailsJob(t *testing.T) {
	repo := NewMemoryRepo()
	tracker := &Tracker{
		Repo: repo,
		Processor: fnProcessor(func(ctx context.Context, job Job, advance AdvanceFunc) error {
			_ = advance("fetch", 25)
			return errors.New("parse failed: malformed header")
		}),
	}

	job, err := tracker.Create(context.Background(), "user-1", "file-2")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	final := waitTerminal(t, repo, job.ID)
	if final.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if final.Error == "" {
		t.Fatalf("expected failure reason on record")
	}
	if final.Progress != 25 {
		t.Fatalf("failure should keep last progress, got %d", final.Progress)
	}
}

func TestTrackerRecoversProcessorPanic(t *testing.T) {
	repo := NewMemoryRepo()
	tracker := &Tracker{
		Repo: repo,
		Processor: fnProcessor(func(ctx context.Context, job Job, advance AdvanceFunc) error {
			panic("unexpected nil")
		}),
	}

	job, err := tracker.Create(context.Background(), "user-1", "file-3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	final := waitTerminal(t, repo, job.ID)
	if final.Status != StatusFailed {
		t.Fatalf("expected failed after panic, got %s", final.Status)
	}
}

func TestTrackerProcessSkipsTerminalJob(t *testing.T) {
	repo := NewMemoryRepo()
	var runs int
	tracker := &Tracker{
		Repo: repo,
		Processor: fnProcessor(func(ctx context.Context, job Job, advance AdvanceFunc) error {
			runs++
			return nil
		}),
	}

	job := Job{ID: "job-1", OwnerID: "user-1", TargetRef: "file-1", Status: StatusCompleted, Progress: 100, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	if err := tracker.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("process terminal job must be a no-op, got %v", err)
	}
	if runs != 0 {
		t.Fatalf("processor ran on terminal job")
	}
}

func TestTrackerCreateValidatesInput(t *testing.T) {
	tracker := &Tracker{Repo: NewMemoryRepo()}
	if _, err := tracker.Create(context.Background(), "", "file-1"); err == nil {
		t.Fatal("expected error for empty owner")
	}
	if _, err := tracker.Create(context.Background(), "user-1", ""); err == nil {
		t.Fatal("expected error for empty target")
	}
}

func TestAdvanceRejectsBackwardProgress(t *testing.T) {
	repo := NewMemoryRepo()
	job := Job{ID: "job-2", OwnerID: "user-1", TargetRef: "file-1", Status: StatusPending, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	if _, err := repo.Advance(context.Background(), job.ID, "parse", 40); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := repo.Advance(context.Background(), job.ID, "fetch", 10); !errors.Is(err, ErrProgressBackward) {
		t.Fatalf("expected ErrProgressBackward, got %v", err)
	}
}

func TestAdvanceRejectsTerminalMutation(t *testing.T) {
	repo := NewMemoryRepo()
	job := Job{ID: "job-3", OwnerID: "user-1", TargetRef: "file-1", Status: StatusPending, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	if _, err := repo.Advance(context.Background(), job.ID, "done", 100); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := repo.Advance(context.Background(), job.ID, "again", 100); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal on completed job, got %v", err)
	}
	if _, err := repo.Fail(context.Background(), job.ID, "late failure"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal on Fail after completion, got %v", err)
	}

	final, err := repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if final.Status != StatusCompleted || final.Error != "" {
		t.Fatalf("terminal record mutated: %+v", final)
	}
}

func TestJobLogFieldsCarriesRequestID(t *testing.T) {
	job := Job{ID: "job-9", OwnerID: "user-1"}

	ctx := WithRequestID(context.Background(), "req-42")
	fields := jobLogFields(ctx, job)
	if fields["job_id"] != "job-9" || fields["owner_id"] != "user-1" {
		t.Fatalf("base fields missing: %+v", fields)
	}
	if fields["request_id"] != "req-42" {
		t.Fatalf("expected request_id carried into log fields, got %+v", fields)
	}

	// No request id on the context means no empty key in the line.
	bare := jobLogFields(context.Background(), job)
	if _, ok := bare["request_id"]; ok {
		t.Fatalf("request_id should be omitted when absent: %+v", bare)
	}
}

func TestListByOwnerNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		job := Job{ID: id, OwnerID: "user-1", TargetRef: "f", Status: StatusPending, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Create(context.Background(), job); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := repo.ListByOwner(context.Background(), "user-1", 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].ID != "c" || out[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", out)
	}

	rest, err := repo.ListByOwner(context.Background(), "user-1", 2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "a" {
		t.Fatalf("unexpected page: %+v", rest)
	}
}
