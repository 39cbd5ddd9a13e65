package workflows

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/respond"
)

// Handler exposes scheduled workflow CRUD and manual execution.
type Handler struct {
	Workflows  WorkflowRepo
	Executions ExecutionRepo
	Scheduler  *Scheduler
}

// NewHandler constructs a Handler.
func NewHandler(workflows WorkflowRepo, executions ExecutionRepo, scheduler *Scheduler) *Handler {
	return &Handler{Workflows: workflows, Executions: executions, Scheduler: scheduler}
}

// RegisterRoutes attaches workflow routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/workflows", h.create)
	rg.GET("/workflows", h.list)
	rg.GET("/workflows/:id", h.get)
	rg.PATCH("/workflows/:id", h.setEnabled)
	rg.DELETE("/workflows/:id", h.delete)
	rg.POST("/workflows/:id/run", h.runNow)
	rg.GET("/workflows/:id/executions", h.listExecutions)
}

type createWorkflowRequest struct {
	Name        string   `json:"name" binding:"required"`
	TriggerExpr string   `json:"triggerExpr" binding:"required"`
	Query       string   `json:"query" binding:"required"`
	Enabled     *bool    `json:"enabled"`
	Actions     []string `json:"actions"`
}

func (h *Handler) create(c *gin.Context) {
	var req createWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", map[string]string{"error": err.Error()})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	wf := ScheduledWorkflow{
		ID:          uuid.NewString(),
		Name:        req.Name,
		TriggerExpr: req.TriggerExpr,
		Enabled:     enabled,
		Query:       req.Query,
		Actions:     req.Actions,
		CreatedAt:   time.Now().UTC(),
	}

	if wf.Enabled {
		if err := h.Scheduler.Schedule(c.Request.Context(), wf); err != nil {
			var schedErr *ScheduleError
			if errors.As(err, &schedErr) {
				respond.Error(c, http.StatusBadRequest, "invalid_trigger", "trigger expression is not valid cron syntax", map[string]string{
					"triggerExpr": wf.TriggerExpr,
				})
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to schedule workflow", nil)
			return
		}
	}

	if err := h.Workflows.Save(c.Request.Context(), wf); err != nil {
		h.Scheduler.Unschedule(wf.ID)
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save workflow", nil)
		return
	}

	// Re-register now that the row exists so NextRun lands on it.
	if wf.Enabled {
		if err := h.Scheduler.Schedule(c.Request.Context(), wf); err == nil {
			if saved, getErr := h.Workflows.GetByID(c.Request.Context(), wf.ID); getErr == nil {
				wf = saved
			}
		}
	}

	respond.JSON(c, http.StatusCreated, wf)
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Workflows.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list workflows", nil)
		return
	}
	respond.OK(c, gin.H{"workflows": out})
}

func (h *Handler) get(c *gin.Context) {
	wf, err := h.Workflows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch workflow", nil)
		}
		return
	}
	respond.OK(c, wf)
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) setEnabled(c *gin.Context) {
	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "enabled is required", nil)
		return
	}

	id := c.Param("id")
	wf, err := h.Workflows.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch workflow", nil)
		}
		return
	}

	if err := h.Workflows.SetEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update workflow", nil)
		return
	}

	if *req.Enabled {
		wf.Enabled = true
		if err := h.Scheduler.Schedule(c.Request.Context(), wf); err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_trigger", "trigger expression is not valid cron syntax", nil)
			return
		}
	} else {
		h.Scheduler.Unschedule(id)
	}

	respond.OK(c, gin.H{"id": id, "enabled": *req.Enabled})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	h.Scheduler.Unschedule(id)
	if err := h.Workflows.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete workflow", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) runNow(c *gin.Context) {
	wf, err := h.Workflows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch workflow", nil)
		}
		return
	}

	exec, err := h.Scheduler.ExecuteNow(c.Request.Context(), wf)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run workflow", nil)
		return
	}
	respond.OK(c, exec)
}

func (h *Handler) listExecutions(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Workflows.GetByID(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch workflow", nil)
		}
		return
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	out, err := h.Executions.ListByWorkflow(c.Request.Context(), id, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list executions", nil)
		return
	}
	respond.OK(c, gin.H{"executions": out})
}
