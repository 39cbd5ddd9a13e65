package stages

import (
	"context"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
)

// Category is the classifier's verdict on what a query needs. The set is
// closed; anything a collaborator returns outside it is treated as a
// degraded call and falls back to CategoryConversational.
type Category string

const (
	CategoryConversational Category = "conversational"
	CategoryRetrieval      Category = "needs_retrieval"
	CategorySearch         Category = "needs_search"
	CategorySummarize      Category = "ready_to_summarize"
)

// ParseCategory maps a collaborator label onto the closed category set.
func ParseCategory(label string) (Category, bool) {
	switch Category(label) {
	case CategoryConversational, CategoryRetrieval, CategorySearch, CategorySummarize:
		return Category(label), true
	default:
		return "", false
	}
}

// Classifier decides which category a query falls into.
type Classifier interface {
	Classify(ctx context.Context, query string, history []pipeline.Message) (Category, error)
}

// Retriever returns dataset descriptors ranked by relevance to the query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]pipeline.Dataset, error)
}

// Searcher returns free-text findings for the query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Analyzer produces an opaque analysis payload plus insights over the
// retrieved datasets.
type Analyzer interface {
	Analyze(ctx context.Context, query string, datasets []pipeline.Dataset) (map[string]any, []pipeline.Insight, error)
}

// Visualizer turns an analysis payload into a chart description.
type Visualizer interface {
	Visualize(ctx context.Context, query string, analysis map[string]any) (*pipeline.Visualization, error)
}

// Summarizer writes the final answer text given the full run state.
type Summarizer interface {
	Summarize(ctx context.Context, s pipeline.State) (string, error)
}

// Responder answers conversational queries that need no data work.
type Responder interface {
	Respond(ctx context.Context, query string, history []pipeline.Message) (string, error)
}

// Collaborators bundles every external capability the stages consume.
type Collaborators struct {
	Classifier Classifier
	Retriever  Retriever
	Searcher   Searcher
	Analyzer   Analyzer
	Visualizer Visualizer
	Summarizer Summarizer
	Responder  Responder
}

// All returns the full handler set wired to the given collaborators,
// ready to hand to pipeline.New.
func All(c Collaborators) []pipeline.Handler {
	return []pipeline.Handler{
		&ClassifyStage{Classifier: c.Classifier},
		&ChatStage{Responder: c.Responder},
		&RetrieveStage{Retriever: c.Retriever},
		&SearchStage{Searcher: c.Searcher},
		&AnalyzeStage{Analyzer: c.Analyzer},
		&VisualizeStage{Visualizer: c.Visualizer},
		&SummarizeStage{Summarizer: c.Summarizer},
	}
}
