package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGWorkflowRepoSaveUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGWorkflowRepo{DB: db}
	mock.ExpectExec("INSERT INTO workflows").
		WillReturnResult(sqlmock.NewResult(0, 1))

	wf := testWorkflow("wf-1")
	wf.Actions = []string{"log_summary"}
	if err := repo.Save(context.Background(), wf); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGWorkflowRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGWorkflowRepo{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM workflows WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "trigger_expr", "enabled", "query", "actions", "last_run", "next_run", "created_at"}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGWorkflowRepoRecordRunMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGWorkflowRepo{DB: db}
	mock.ExpectExec("UPDATE workflows SET last_run").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.RecordRun(context.Background(), "missing", time.Now().UTC(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGExecutionRepoFinalizeGuardsTerminalRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGExecutionRepo{DB: db}
	// The status guard matches no rows when the execution already finished.
	mock.ExpectExec("UPDATE executions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	end := time.Now().UTC()
	exec := Execution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		StartTime:  end.Add(-time.Second),
		EndTime:    &end,
		Status:     ExecutionSuccess,
		Result:     &ExecutionResult{Summary: "ok", InsightCount: 2},
		DurationMs: 1000,
	}
	if err := repo.Finalize(context.Background(), exec); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGExecutionRepoGetByIDParsesResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGExecutionRepo{DB: db}
	start := time.Now().UTC().Add(-time.Minute)
	end := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "workflow_id", "start_time", "end_time", "status", "result", "error_message", "duration_ms"}).
		AddRow("exec-1", "wf-1", start, end, ExecutionSuccess,
			[]byte(`{"summary":"sales dipped","insightCount":3,"datasetNames":["sales_daily"]}`), nil, 1234.5)
	mock.ExpectQuery("SELECT (.+) FROM executions WHERE id").
		WithArgs("exec-1").
		WillReturnRows(rows)

	exec, err := repo.GetByID(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if exec.Result == nil || exec.Result.InsightCount != 3 || exec.Result.Summary != "sales dipped" {
		t.Fatalf("unexpected result: %+v", exec.Result)
	}
	if exec.DurationMs != 1234.5 {
		t.Fatalf("unexpected duration %v", exec.DurationMs)
	}
	if exec.EndTime == nil {
		t.Fatal("expected end time")
	}
}
