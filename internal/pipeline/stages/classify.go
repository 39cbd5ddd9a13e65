package stages

import (
	"context"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// ClassifyStage is the entry stage: it asks the classifier collaborator
// which path the query needs and proposes the first real stage. A failed or
// unrecognized classification degrades to the conversational path, which
// can always produce an answer.
type ClassifyStage struct {
	Classifier Classifier
}

func (s *ClassifyStage) Name() pipeline.Stage {
	return pipeline.StageClassify
}

func (s *ClassifyStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.StageChat,
		pipeline.StageRetrieve,
		pipeline.StageSearch,
		pipeline.StageSummarize,
	}
}

func (s *ClassifyStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	category, err := s.Classifier.Classify(ctx, state.Query, state.Messages)
	if err != nil {
		telemetry.Error("pipeline.classify.degraded", map[string]any{
			"error": err.Error(),
		})
		return pipeline.Update{
			Metadata:  map[string]string{"category": string(CategoryConversational), "classify_degraded": err.Error()},
			NextStage: pipeline.StageChat,
		}
	}

	return pipeline.Update{
		Metadata:  map[string]string{"category": string(category)},
		NextStage: nextForCategory(category),
	}
}

func nextForCategory(c Category) pipeline.Stage {
	switch c {
	case CategoryRetrieval:
		return pipeline.StageRetrieve
	case CategorySearch:
		return pipeline.StageSearch
	case CategorySummarize:
		return pipeline.StageSummarize
	default:
		return pipeline.StageChat
	}
}
