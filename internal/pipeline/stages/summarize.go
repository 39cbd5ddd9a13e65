package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// SummarizeStage writes the final answer. When the summarizer collaborator
// fails it falls back to a plain recap assembled from the state, so a
// degraded run still ends with a usable summary.
type SummarizeStage struct {
	Summarizer Summarizer
}

func (s *SummarizeStage) Name() pipeline.Stage {
	return pipeline.StageSummarize
}

func (s *SummarizeStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageEnd}
}

func (s *SummarizeStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	summary, err := s.Summarizer.Summarize(ctx, state)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			telemetry.Error("pipeline.summarize.degraded", map[string]any{
				"error": err.Error(),
			})
		}
		summary = fallbackSummary(state)
	}

	return pipeline.Update{
		Summary: pipeline.StringPtr(summary),
		Messages: []pipeline.Message{
			{Role: "assistant", Content: summary, Timestamp: time.Now().UTC()},
		},
		NextStage: pipeline.StageEnd,
	}
}

func fallbackSummary(state pipeline.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis for %q", state.Query)
	if len(state.Datasets) > 0 {
		names := make([]string, 0, len(state.Datasets))
		for _, d := range state.Datasets {
			names = append(names, d.Name)
		}
		fmt.Fprintf(&b, " over %s", strings.Join(names, ", "))
	}
	b.WriteString(".")
	for _, in := range state.Insights {
		fmt.Fprintf(&b, " %s: %s.", in.Title, in.Content)
	}
	if state.SearchResult != "" {
		fmt.Fprintf(&b, " Related findings: %s", state.SearchResult)
	}
	return b.String()
}
