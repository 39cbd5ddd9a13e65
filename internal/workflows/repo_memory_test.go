package workflows

import (
	"context"
	"testing"
	"time"
)

func TestMemoryExecutionRepoFinalizeOnce(t *testing.T) {
	repo := NewMemoryExecutionRepo()
	ctx := context.Background()

	exec := Execution{ID: "exec-1", WorkflowID: "wf-1", StartTime: time.Now().UTC(), Status: ExecutionRunning}
	if err := repo.Create(ctx, exec); err != nil {
		t.Fatalf("create: %v", err)
	}

	exec.Status = ExecutionSuccess
	if err := repo.Finalize(ctx, exec); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// A second finalize must not touch the terminal record.
	exec.Status = ExecutionFailed
	if err := repo.Finalize(ctx, exec); err == nil {
		t.Fatal("expected error on double finalize")
	}
	stored, err := repo.GetByID(ctx, "exec-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != ExecutionSuccess {
		t.Fatalf("terminal record mutated: %q", stored.Status)
	}
}

func TestMemoryExecutionRepoListByWorkflowPaging(t *testing.T) {
	repo := NewMemoryExecutionRepo()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		exec := Execution{
			ID:         string(rune('a' + i)),
			WorkflowID: "wf-1",
			StartTime:  base.Add(time.Duration(i) * time.Minute),
			Status:     ExecutionSuccess,
		}
		if err := repo.Create(ctx, exec); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := repo.ListByWorkflow(ctx, "wf-1", 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2, got %d", len(page))
	}
	// Newest first: index 1 is the second-newest start time.
	if !page[0].StartTime.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("unexpected ordering, first start %v", page[0].StartTime)
	}

	empty, err := repo.ListByWorkflow(ctx, "wf-1", 10, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestMemoryWorkflowRepoListEnabled(t *testing.T) {
	repo := NewMemoryWorkflowRepo()
	ctx := context.Background()

	on := testWorkflow("wf-on")
	off := testWorkflow("wf-off")
	off.Enabled = false
	for _, wf := range []ScheduledWorkflow{on, off} {
		if err := repo.Save(ctx, wf); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	enabled, err := repo.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enabled) != 1 || enabled[0].ID != "wf-on" {
		t.Fatalf("unexpected enabled set: %+v", enabled)
	}
}
