package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/datasets"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/files"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/jobs"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/runs"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/config"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/metrics"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/middleware"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server/respond"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/workflows"
)

// RouterDeps bundles the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	FileHandler     *files.Handler
	JobHandler      *jobs.Handler
	DatasetHandler  *datasets.Handler
	RunHandler      *runs.Handler
	WorkflowHandler *workflows.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/jobs/:id" {
				return "POLLING"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 5, Burst: 20},
			"POLLING": {Rate: 20, Burst: 60},
		},
	}))

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	registerMeRoutes(api)

	if deps.FileHandler != nil {
		deps.FileHandler.RegisterRoutes(api)
	}
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(api)
	}
	if deps.DatasetHandler != nil {
		deps.DatasetHandler.RegisterRoutes(api)
	}
	if deps.RunHandler != nil {
		deps.RunHandler.RegisterRoutes(api)
	}
	if deps.WorkflowHandler != nil {
		deps.WorkflowHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
