package pipeline

import "time"

// Message is one conversational turn threaded through a run.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Dataset describes one dataset a stage made available to the run.
type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Description string   `json:"description,omitempty"`
	Columns     []string `json:"columns,omitempty"`
	RowCount    int64    `json:"rowCount,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Insight is one finding produced by the analysis stage.
type Insight struct {
	Kind       string  `json:"kind"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Visualization is the chart payload produced by the visualization stage.
type Visualization struct {
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Series []Series `json:"series"`
}

// Series is one labeled data series inside a visualization.
type Series struct {
	Name   string    `json:"name"`
	Labels []string  `json:"labels,omitempty"`
	Data   []float64 `json:"data"`
}

// State is the shared context for one pipeline run. Exactly one State exists
// per request and it is only ever changed through Merge.
type State struct {
	Query          string            `json:"query"`
	Messages       []Message         `json:"messages"`
	Datasets       []Dataset         `json:"datasets"`
	AnalysisResult map[string]any    `json:"analysisResult,omitempty"`
	Visualization  *Visualization    `json:"visualization,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	SearchResult   string            `json:"searchResult,omitempty"`
	Insights       []Insight         `json:"insights"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	NextStage      Stage             `json:"nextStage"`
	Error          string            `json:"error,omitempty"`
}

// Update is the partial state a stage returns. Nil/zero fields leave the
// corresponding state field untouched, except NextStage, which every stage
// must set on every return.
type Update struct {
	Messages       []Message
	Datasets       []Dataset
	AnalysisResult map[string]any
	Visualization  *Visualization
	Summary        *string
	SearchResult   *string
	Insights       []Insight
	Metadata       map[string]string
	NextStage      Stage
	Error          string
}

// NewState builds the initial state for a query. The user's query is seeded
// as the first message so later stages see the full conversation.
func NewState(query string, entry Stage) State {
	return State{
		Query: query,
		Messages: []Message{
			{Role: "user", Content: query, Timestamp: time.Now().UTC()},
		},
		Datasets:  []Dataset{},
		Insights:  []Insight{},
		NextStage: entry,
	}
}

// Merge applies an update to a state and returns the result. It is pure:
// neither input is modified. Per-field policy: Messages and Insights append,
// Datasets and the result payloads replace, Metadata overlays key-wise with
// the update winning on conflict, NextStage always replaces.
func Merge(s State, u Update) State {
	out := s

	if len(u.Messages) > 0 {
		merged := make([]Message, 0, len(s.Messages)+len(u.Messages))
		merged = append(merged, s.Messages...)
		merged = append(merged, u.Messages...)
		out.Messages = merged
	}
	if u.Datasets != nil {
		out.Datasets = append([]Dataset{}, u.Datasets...)
	}
	if u.AnalysisResult != nil {
		out.AnalysisResult = u.AnalysisResult
	}
	if u.Visualization != nil {
		out.Visualization = u.Visualization
	}
	if u.Summary != nil {
		out.Summary = *u.Summary
	}
	if u.SearchResult != nil {
		out.SearchResult = *u.SearchResult
	}
	if len(u.Insights) > 0 {
		merged := make([]Insight, 0, len(s.Insights)+len(u.Insights))
		merged = append(merged, s.Insights...)
		merged = append(merged, u.Insights...)
		out.Insights = merged
	}
	if len(u.Metadata) > 0 {
		merged := make(map[string]string, len(s.Metadata)+len(u.Metadata))
		for k, v := range s.Metadata {
			merged[k] = v
		}
		for k, v := range u.Metadata {
			merged[k] = v
		}
		out.Metadata = merged
	}
	out.NextStage = u.NextStage
	if u.Error != "" {
		out.Error = u.Error
	}
	return out
}

// StringPtr returns a pointer to s, for Update fields with replace semantics.
func StringPtr(s string) *string {
	return &s
}
