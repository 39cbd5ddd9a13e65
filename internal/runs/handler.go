package runs

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/metrics"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/middleware"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/respond"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/telemetry"
)

// Handler runs ad-hoc analysis queries through the pipeline.
type Handler struct {
	Orchestrator *pipeline.Orchestrator
}

// NewHandler constructs a Handler.
func NewHandler(orchestrator *pipeline.Orchestrator) *Handler {
	return &Handler{Orchestrator: orchestrator}
}

// RegisterRoutes attaches query routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/query", h.runQuery)
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

type queryResponse struct {
	Query          string                  `json:"query"`
	Messages       []pipeline.Message      `json:"messages"`
	Datasets       []pipeline.Dataset      `json:"datasets"`
	AnalysisResult map[string]any          `json:"analysisResult,omitempty"`
	Visualization  *pipeline.Visualization `json:"visualization,omitempty"`
	Summary        string                  `json:"summary,omitempty"`
	SearchResult   string                  `json:"searchResult,omitempty"`
	Insights       []pipeline.Insight      `json:"insights"`
	Error          string                  `json:"error,omitempty"`
	DurationMs     float64                 `json:"durationMs"`
}

func (h *Handler) runQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "query is required", nil)
		return
	}

	requestID := middleware.RequestIDFromContext(c)
	start := time.Now()

	final, err := h.Orchestrator.Run(c.Request.Context(), req.Query, func(s pipeline.State) {
		telemetry.Info("pipeline.stage_complete", map[string]any{
			"request_id": requestID,
			"next_stage": string(s.NextStage),
			"messages":   len(s.Messages),
		})
	})
	elapsed := time.Since(start)
	metrics.ObservePipelineRun(elapsed, err == nil && final.Error == "")

	if err != nil {
		telemetry.Error("pipeline.run_failed", map[string]any{
			"request_id": requestID,
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "pipeline_error", "analysis pipeline failed", nil)
		return
	}

	respond.OK(c, queryResponse{
		Query:          final.Query,
		Messages:       final.Messages,
		Datasets:       final.Datasets,
		AnalysisResult: final.AnalysisResult,
		Visualization:  final.Visualization,
		Summary:        final.Summary,
		SearchResult:   final.SearchResult,
		Insights:       final.Insights,
		Error:          final.Error,
		DurationMs:     float64(elapsed.Microseconds()) / 1000.0,
	})
}
