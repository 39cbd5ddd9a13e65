package jobs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/files"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/middleware"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the job tracker.
type Handler struct {
	Tracker  *Tracker
	FileRepo files.Repo
}

// NewHandler constructs a Handler.
func NewHandler(tracker *Tracker, fileRepo files.Repo) *Handler {
	return &Handler{Tracker: tracker, FileRepo: fileRepo}
}

// RegisterRoutes attaches job routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files/:id/ingest", h.startIngestion)
	rg.GET("/jobs", h.listJobs)
	rg.GET("/jobs/:id", h.getJob)
}

func (h *Handler) startIngestion(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	fileID := c.Param("id")
	if fileID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file id is required", nil)
		return
	}

	if _, err := h.FileRepo.GetByID(c.Request.Context(), ownerID, fileID); err != nil {
		switch {
		case errors.Is(err, files.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start ingestion", nil)
		}
		return
	}

	job, err := h.Tracker.Create(c.Request.Context(), ownerID, fileID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start ingestion", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (h *Handler) getJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job id is required", nil)
		return
	}

	job, err := h.Tracker.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
		}
		return
	}
	// Another owner's job looks like a missing one; the id alone must
	// not reveal that it exists.
	if job.OwnerID != middleware.UserIDFromContext(c) {
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		return
	}

	respond.OK(c, job)
}

func (h *Handler) listJobs(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

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

	out, err := h.Tracker.ListByOwner(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list jobs", nil)
		return
	}

	respond.OK(c, gin.H{"jobs": out})
}
