package pipeline

import (
	"context"
	"strings"
	"testing"
)

type stubHandler struct {
	name       Stage
	successors []Stage
	execute    func(ctx context.Context, s State) Update
}

func (h stubHandler) Name() Stage         { return h.name }
func (h stubHandler) Successors() []Stage { return h.successors }
func (h stubHandler) Execute(ctx context.Context, s State) Update {
	return h.execute(ctx, s)
}

func fullHandlerSet(overrides map[Stage]func(ctx context.Context, s State) Update) []Handler {
	defaults := map[Stage]stubHandler{
		StageClassify: {
			name:       StageClassify,
			successors: []Stage{StageChat, StageRetrieve, StageSearch, StageSummarize},
			execute: func(ctx context.Context, s State) Update {
				return Update{NextStage: StageRetrieve}
			},
		},
		StageChat: {
			name:       StageChat,
			successors: []Stage{StageEnd},
			execute: func(ctx context.Context, s State) Update {
				return Update{
					Messages:  []Message{{Role: "assistant", Content: "hello"}},
					NextStage: StageEnd,
				}
			},
		},
		StageRetrieve: {
			name:       StageRetrieve,
			successors: []Stage{StageSearch, StageAnalyze, StageSummarize},
			execute: func(ctx context.Context, s State) Update {
				return Update{
					Datasets:  []Dataset{{ID: "d1", Name: "sales"}},
					NextStage: StageAnalyze,
				}
			},
		},
		StageSearch: {
			name:       StageSearch,
			successors: []Stage{StageAnalyze, StageSummarize},
			execute: func(ctx context.Context, s State) Update {
				return Update{SearchResult: StringPtr("context"), NextStage: StageAnalyze}
			},
		},
		StageAnalyze: {
			name:       StageAnalyze,
			successors: []Stage{StageVisualize, StageSummarize},
			execute: func(ctx context.Context, s State) Update {
				return Update{
					AnalysisResult: map[string]any{"total": 42},
					Insights:       []Insight{{Kind: "metric", Title: "Total", Confidence: 1}},
					NextStage:      StageVisualize,
				}
			},
		},
		StageVisualize: {
			name:       StageVisualize,
			successors: []Stage{StageSummarize},
			execute: func(ctx context.Context, s State) Update {
				return Update{
					Visualization: &Visualization{Type: "bar", Title: "Totals"},
					NextStage:     StageSummarize,
				}
			},
		},
		StageSummarize: {
			name:       StageSummarize,
			successors: []Stage{StageEnd},
			execute: func(ctx context.Context, s State) Update {
				return Update{Summary: StringPtr("done"), NextStage: StageEnd}
			},
		},
	}

	out := make([]Handler, 0, len(defaults))
	for stage, h := range defaults {
		if fn, ok := overrides[stage]; ok {
			h.execute = fn
		}
		out = append(out, h)
	}
	return out
}

func TestRunFullAnalysisPath(t *testing.T) {
	o, err := New(DefaultPolicy(), fullHandlerSet(nil)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	var updates int
	final, err := o.Run(context.Background(), "revenue by region", func(s State) {
		updates++
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// classify, retrieve, analyze, visualize, summarize
	if updates != 5 {
		t.Fatalf("expected 5 stage updates, got %d", updates)
	}
	if final.Error != "" {
		t.Fatalf("unexpected error: %q", final.Error)
	}
	if len(final.Datasets) != 1 || final.Datasets[0].ID != "d1" {
		t.Fatalf("datasets lost: %+v", final.Datasets)
	}
	if final.AnalysisResult["total"] != 42 {
		t.Fatalf("analysis result lost: %+v", final.AnalysisResult)
	}
	if final.Visualization == nil || final.Visualization.Type != "bar" {
		t.Fatalf("visualization lost: %+v", final.Visualization)
	}
	if final.Summary != "done" {
		t.Fatalf("summary lost: %q", final.Summary)
	}
	if len(final.Insights) != 1 {
		t.Fatalf("insights lost: %+v", final.Insights)
	}
	if final.NextStage != StageEnd {
		t.Fatalf("run did not end: %q", final.NextStage)
	}
}

func TestRunErrorShortCircuits(t *testing.T) {
	overrides := map[Stage]func(ctx context.Context, s State) Update{
		StageRetrieve: func(ctx context.Context, s State) Update {
			// The stage proposes analyze, but the error must win.
			return Update{Error: "no datasets available", NextStage: StageAnalyze}
		},
	}
	o, err := New(DefaultPolicy(), fullHandlerSet(overrides)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	var stagesRun int
	final, err := o.Run(context.Background(), "q", func(State) { stagesRun++ })
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stagesRun != 2 { // classify, retrieve
		t.Fatalf("expected 2 stages before short circuit, got %d", stagesRun)
	}
	if final.Error != "no datasets available" {
		t.Fatalf("error not preserved: %q", final.Error)
	}
	// The stage proposed analyze; the failed run must not report it.
	if final.NextStage != StageEnd {
		t.Fatalf("failed run reports live next stage %q", final.NextStage)
	}
}

func TestRunOmittedNextStageTerminatesWithError(t *testing.T) {
	overrides := map[Stage]func(ctx context.Context, s State) Update{
		StageClassify: func(ctx context.Context, s State) Update {
			return Update{} // forgot NextStage
		},
	}
	o, err := New(DefaultPolicy(), fullHandlerSet(overrides)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	final, err := o.Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("an omitted successor is a stage fault, not a run error: %v", err)
	}
	if !strings.Contains(final.Error, "did not set a next stage") {
		t.Fatalf("expected missing-successor error in state, got %q", final.Error)
	}
	if final.NextStage != StageEnd {
		t.Fatalf("run did not terminate: %q", final.NextStage)
	}
}

func TestRunUndeclaredSuccessorFails(t *testing.T) {
	overrides := map[Stage]func(ctx context.Context, s State) Update{
		StageClassify: func(ctx context.Context, s State) Update {
			return Update{NextStage: StageVisualize}
		},
	}
	o, err := New(DefaultPolicy(), fullHandlerSet(overrides)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	_, err = o.Run(context.Background(), "q", nil)
	if err == nil {
		t.Fatal("expected run error for undeclared successor")
	}
	if !strings.Contains(err.Error(), "undeclared successor") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRecoversStagePanic(t *testing.T) {
	overrides := map[Stage]func(ctx context.Context, s State) Update{
		StageAnalyze: func(ctx context.Context, s State) Update {
			panic("boom")
		},
	}
	o, err := New(DefaultPolicy(), fullHandlerSet(overrides)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	final, err := o.Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("panic must become a state error: %v", err)
	}
	if !strings.Contains(final.Error, "panicked") {
		t.Fatalf("panic not recorded: %q", final.Error)
	}
}

func TestNewRejectsDuplicateHandler(t *testing.T) {
	handlers := fullHandlerSet(nil)
	handlers = append(handlers, stubHandler{
		name:       StageClassify,
		successors: []Stage{StageChat},
		execute:    func(ctx context.Context, s State) Update { return Update{NextStage: StageChat} },
	})

	if _, err := New(DefaultPolicy(), handlers...); err == nil {
		t.Fatal("expected duplicate handler error")
	}
}

func TestNewRejectsMissingHandler(t *testing.T) {
	handlers := fullHandlerSet(nil)
	// Drop summarize.
	trimmed := handlers[:0]
	for _, h := range handlers {
		if h.Name() != StageSummarize {
			trimmed = append(trimmed, h)
		}
	}

	if _, err := New(DefaultPolicy(), trimmed...); err == nil {
		t.Fatal("expected missing handler error")
	}
}

func TestNewRejectsHandlerWithUndeclaredSuccessor(t *testing.T) {
	handlers := fullHandlerSet(nil)
	for i, h := range handlers {
		if h.Name() == StageChat {
			handlers[i] = stubHandler{
				name:       StageChat,
				successors: []Stage{StageEnd, StageAnalyze},
				execute:    func(ctx context.Context, s State) Update { return Update{NextStage: StageEnd} },
			}
		}
	}

	if _, err := New(DefaultPolicy(), handlers...); err == nil {
		t.Fatal("expected undeclared successor error at construction")
	}
}
