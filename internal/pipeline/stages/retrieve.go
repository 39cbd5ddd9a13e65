package stages

import (
	"context"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// ErrNoDatasets is the message recorded when retrieval finds nothing to
// analyze. It ends the run through the error short-circuit.
const ErrNoDatasets = "No relevant datasets found for this query. Upload or connect a data source first."

// RetrieveStage asks the retriever for datasets relevant to the query. An
// empty result is fatal for the analysis path; a failed collaborator call
// degrades to the search path instead.
type RetrieveStage struct {
	Retriever Retriever
}

func (s *RetrieveStage) Name() pipeline.Stage {
	return pipeline.StageRetrieve
}

func (s *RetrieveStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.StageSearch,
		pipeline.StageAnalyze,
	}
}

func (s *RetrieveStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	datasets, err := s.Retriever.Retrieve(ctx, state.Query)
	if err != nil {
		telemetry.Error("pipeline.retrieve.degraded", map[string]any{
			"error": err.Error(),
		})
		return pipeline.Update{
			Datasets:  []pipeline.Dataset{},
			Metadata:  map[string]string{"retrieve_degraded": err.Error()},
			NextStage: pipeline.StageSearch,
		}
	}

	if len(datasets) == 0 {
		// The proposed successor is irrelevant here: the orchestrator's
		// error short-circuit routes to the terminal sentinel.
		return pipeline.Update{
			Datasets:  []pipeline.Dataset{},
			Error:     ErrNoDatasets,
			NextStage: pipeline.StageAnalyze,
		}
	}

	return pipeline.Update{
		Datasets:  datasets,
		NextStage: pipeline.StageAnalyze,
	}
}
