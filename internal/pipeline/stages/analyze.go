package stages

import (
	"context"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// AnalyzeStage runs the analysis collaborator over the retrieved datasets.
// When the result carries numeric insights it continues to visualization,
// otherwise straight to the summary. A failed call degrades to a summary of
// the raw datasets.
type AnalyzeStage struct {
	Analyzer Analyzer
}

func (s *AnalyzeStage) Name() pipeline.Stage {
	return pipeline.StageAnalyze
}

func (s *AnalyzeStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.StageVisualize,
		pipeline.StageSummarize,
	}
}

func (s *AnalyzeStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	result, insights, err := s.Analyzer.Analyze(ctx, state.Query, state.Datasets)
	if err != nil {
		telemetry.Error("pipeline.analyze.degraded", map[string]any{
			"error": err.Error(),
		})
		return pipeline.Update{
			Metadata:  map[string]string{"analyze_degraded": err.Error()},
			NextStage: pipeline.StageSummarize,
		}
	}

	next := pipeline.StageSummarize
	if hasChartable(insights) {
		next = pipeline.StageVisualize
	}
	return pipeline.Update{
		AnalysisResult: result,
		Insights:       insights,
		NextStage:      next,
	}
}

func hasChartable(insights []pipeline.Insight) bool {
	for _, in := range insights {
		if in.Kind == "trend" || in.Kind == "comparison" || in.Kind == "distribution" {
			return true
		}
	}
	return false
}
