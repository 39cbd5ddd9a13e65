package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline/stages"
)

// LLM-backed collaborator implementations. Each one sends a narrow prompt,
// validates the response strictly against the expected shape, and returns an
// error on any mismatch; the calling stage owns the fallback.

const classifySystem = `You route analytics queries. Reply with a JSON object
{"category": "..."} where category is exactly one of: conversational,
needs_retrieval, needs_search, ready_to_summarize.`

// Classifier implements stages.Classifier over an LLM client.
type Classifier struct {
	Client Client
}

func (c Classifier) Classify(ctx context.Context, query string, history []pipeline.Message) (stages.Category, error) {
	user := fmt.Sprintf("Query: %s\nPrior turns: %d", query, len(history))
	raw, err := c.Client.CompleteJSON(ctx, classifySystem, user)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	var parsed struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("classify output invalid: %w", err)
	}
	category, ok := stages.ParseCategory(strings.TrimSpace(parsed.Category))
	if !ok {
		return "", fmt.Errorf("classify output invalid: unknown category %q", parsed.Category)
	}
	return category, nil
}

const analyzeSystem = `You are a data analyst. Given dataset descriptors and a
question, reply with a JSON object {"findings": {...}, "insights": [{"kind":
"trend|comparison|distribution|observation", "title": "...", "content": "...",
"confidence": 0.0}]}.`

// Analyzer implements stages.Analyzer over an LLM client.
type Analyzer struct {
	Client Client
}

func (a Analyzer) Analyze(ctx context.Context, query string, datasets []pipeline.Dataset) (map[string]any, []pipeline.Insight, error) {
	raw, err := a.Client.CompleteJSON(ctx, analyzeSystem, analyzeUser(query, datasets))
	if err != nil {
		return nil, nil, fmt.Errorf("analyze: %w", err)
	}
	var parsed struct {
		Findings map[string]any     `json:"findings"`
		Insights []pipeline.Insight `json:"insights"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("analyze output invalid: %w", err)
	}
	if parsed.Findings == nil {
		return nil, nil, fmt.Errorf("analyze output invalid: missing findings")
	}
	return parsed.Findings, parsed.Insights, nil
}

func analyzeUser(query string, datasets []pipeline.Dataset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nDatasets:\n", query)
	for _, d := range datasets {
		fmt.Fprintf(&b, "- %s (%s): %d rows, columns %s\n", d.Name, d.Source, d.RowCount, strings.Join(d.Columns, ", "))
	}
	return b.String()
}

const visualizeSystem = `You pick a chart for an analysis. Reply with a JSON
object {"type": "line|bar|pie", "title": "...", "series": [{"name": "...",
"labels": [...], "data": [...]}]}.`

// Visualizer implements stages.Visualizer over an LLM client.
type Visualizer struct {
	Client Client
}

func (v Visualizer) Visualize(ctx context.Context, query string, analysis map[string]any) (*pipeline.Visualization, error) {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("visualize: encode analysis: %w", err)
	}
	user := fmt.Sprintf("Question: %s\nAnalysis: %s", query, payload)
	raw, err := v.Client.CompleteJSON(ctx, visualizeSystem, user)
	if err != nil {
		return nil, fmt.Errorf("visualize: %w", err)
	}
	var viz pipeline.Visualization
	if err := json.Unmarshal(raw, &viz); err != nil {
		return nil, fmt.Errorf("visualize output invalid: %w", err)
	}
	switch viz.Type {
	case "line", "bar", "pie":
	default:
		return nil, fmt.Errorf("visualize output invalid: unknown chart type %q", viz.Type)
	}
	if len(viz.Series) == 0 {
		return nil, fmt.Errorf("visualize output invalid: no series")
	}
	return &viz, nil
}

const searchSystem = `You research context for an analytics question. Reply
with a short paragraph of relevant findings, plain text.`

// Searcher implements stages.Searcher over an LLM client.
type Searcher struct {
	Client Client
}

func (s Searcher) Search(ctx context.Context, query string) (string, error) {
	out, err := s.Client.Complete(ctx, searchSystem, query)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	return strings.TrimSpace(out), nil
}

const summarizeSystem = `You write the final answer for an analytics copilot.
Be concise and concrete; cite dataset names when present. Plain text.`

// Summarizer implements stages.Summarizer over an LLM client.
type Summarizer struct {
	Client Client
}

func (s Summarizer) Summarize(ctx context.Context, state pipeline.State) (string, error) {
	out, err := s.Client.Complete(ctx, summarizeSystem, summarizeUser(state))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func summarizeUser(state pipeline.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", state.Query)
	for _, d := range state.Datasets {
		fmt.Fprintf(&b, "Dataset: %s (%d rows)\n", d.Name, d.RowCount)
	}
	for _, in := range state.Insights {
		fmt.Fprintf(&b, "Insight [%s] %s: %s\n", in.Kind, in.Title, in.Content)
	}
	if state.SearchResult != "" {
		fmt.Fprintf(&b, "Findings: %s\n", state.SearchResult)
	}
	return b.String()
}

const chatSystem = `You are an analytics copilot making small talk. Answer
briefly and offer to analyze the user's data. Plain text.`

// Responder implements stages.Responder over an LLM client.
type Responder struct {
	Client Client
}

func (r Responder) Respond(ctx context.Context, query string, history []pipeline.Message) (string, error) {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "user: %s", query)
	out, err := r.Client.Complete(ctx, chatSystem, b.String())
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return strings.TrimSpace(out), nil
}
