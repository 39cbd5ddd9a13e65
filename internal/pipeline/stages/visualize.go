package stages

import (
	"context"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// VisualizeStage asks the visualizer for a chart over the analysis payload.
// The chart is optional: any failure just skips it and moves on to the
// summary.
type VisualizeStage struct {
	Visualizer Visualizer
}

func (s *VisualizeStage) Name() pipeline.Stage {
	return pipeline.StageVisualize
}

func (s *VisualizeStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageSummarize}
}

func (s *VisualizeStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	viz, err := s.Visualizer.Visualize(ctx, state.Query, state.AnalysisResult)
	if err != nil || viz == nil {
		if err != nil {
			telemetry.Error("pipeline.visualize.degraded", map[string]any{
				"error": err.Error(),
			})
		}
		return pipeline.Update{
			Metadata:  map[string]string{"visualize_skipped": "true"},
			NextStage: pipeline.StageSummarize,
		}
	}

	return pipeline.Update{
		Visualization: viz,
		NextStage:     pipeline.StageSummarize,
	}
}
