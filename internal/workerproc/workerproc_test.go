package workerproc

import (
	"context"
	"errors"
	"testing"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/bootstrap"
)

type fakeProcessor struct {
	jobIDs []string
	err    error
}

func (p *fakeProcessor) Process(ctx context.Context, jobID string) error {
	p.jobIDs = append(p.jobIDs, jobID)
	return p.err
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, meta, err := ParseMessage("")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if meta.BodyLen != 0 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestParseMessageInvalidJSON(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodyLen == 0 || meta.BodySHA == "" {
		t.Fatalf("expected populated meta, got %+v", meta)
	}
}

func TestParseMessageMissingJobID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-1","version":1}`)
	var missingErr ErrMissingJobID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingJobID, got %v", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("unexpected request id %q", missingErr.RequestID)
	}
}

func TestHandleMessageProcessesJob(t *testing.T) {
	p := &fakeProcessor{}
	app := &bootstrap.App{JobProcessor: p}

	body := `{"jobId":"job-1","requestId":"req-1","version":1}`
	if err := HandleMessage(context.Background(), app, body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(p.jobIDs) != 1 || p.jobIDs[0] != "job-1" {
		t.Fatalf("unexpected processed jobs %v", p.jobIDs)
	}
}

func TestHandleMessageWrapsProcessorError(t *testing.T) {
	p := &fakeProcessor{err: errors.New("file not found")}
	app := &bootstrap.App{JobProcessor: p}

	body := `{"jobId":"job-1","version":1}`
	err := HandleMessage(context.Background(), app, body)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if procErr.JobID != "job-1" {
		t.Fatalf("unexpected job id %q", procErr.JobID)
	}
}

func TestHandleMessageNoProcessor(t *testing.T) {
	if err := HandleMessage(context.Background(), &bootstrap.App{}, `{"jobId":"job-1"}`); err == nil {
		t.Fatal("expected error without a processor")
	}
}
