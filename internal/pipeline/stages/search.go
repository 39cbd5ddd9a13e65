package stages

import (
	"context"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// SearchStage gathers free-text findings for queries that need context
// beyond the dataset catalog. Failures degrade to an empty finding; the
// summarizer still produces an answer from whatever else the state holds.
type SearchStage struct {
	Searcher Searcher
}

func (s *SearchStage) Name() pipeline.Stage {
	return pipeline.StageSearch
}

func (s *SearchStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.StageAnalyze,
		pipeline.StageSummarize,
	}
}

func (s *SearchStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	findings, err := s.Searcher.Search(ctx, state.Query)
	if err != nil {
		telemetry.Error("pipeline.search.degraded", map[string]any{
			"error": err.Error(),
		})
		return pipeline.Update{
			SearchResult: pipeline.StringPtr(""),
			Metadata:     map[string]string{"search_degraded": err.Error()},
			NextStage:    pipeline.StageSummarize,
		}
	}

	next := pipeline.StageSummarize
	if len(state.Datasets) > 0 {
		next = pipeline.StageAnalyze
	}
	return pipeline.Update{
		SearchResult: pipeline.StringPtr(findings),
		NextStage:    next,
	}
}
