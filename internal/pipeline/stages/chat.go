package stages

import (
	"context"
	"strings"
	"time"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

const chatFallback = "I can help you explore and analyze your datasets. Ask me about trends, comparisons, or upload a file to get started."

// ChatStage answers conversational queries that need no data work and ends
// the run. The response doubles as the run summary so callers always find
// the answer in one place.
type ChatStage struct {
	Responder Responder
}

func (s *ChatStage) Name() pipeline.Stage {
	return pipeline.StageChat
}

func (s *ChatStage) Successors() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageEnd}
}

func (s *ChatStage) Execute(ctx context.Context, state pipeline.State) pipeline.Update {
	reply, err := s.Responder.Respond(ctx, state.Query, state.Messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			telemetry.Error("pipeline.chat.degraded", map[string]any{
				"error": err.Error(),
			})
		}
		reply = chatFallback
	}

	return pipeline.Update{
		Summary: pipeline.StringPtr(reply),
		Messages: []pipeline.Message{
			{Role: "assistant", Content: reply, Timestamp: time.Now().UTC()},
		},
		NextStage: pipeline.StageEnd,
	}
}
