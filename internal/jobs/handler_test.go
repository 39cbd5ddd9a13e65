package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/files"
)

func setupJobRouter(t *testing.T, userID string) (*gin.Engine, Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	tracker := &Tracker{
		Repo: repo,
		Processor: fnProcessor(func(ctx context.Context, job Job, advance AdvanceFunc) error {
			return nil
		}),
	}
	handler := NewHandler(tracker, files.NewMemoryRepo())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	group := router.Group("/api/v1")
	handler.RegisterRoutes(group)
	return router, repo
}

func TestGetJobReturnsOwnJob(t *testing.T) {
	router, repo := setupJobRouter(t, "user-1")

	job := Job{ID: "job-1", OwnerID: "user-1", TargetRef: "file-1", Status: StatusPending, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got Job
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "job-1" {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestGetJobHidesOtherOwners(t *testing.T) {
	router, repo := setupJobRouter(t, "user-2")

	job := Job{ID: "job-1", OwnerID: "user-1", TargetRef: "file-1", Status: StatusPending, CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Someone else's job id must look identical to an unknown one.
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another owner's job, got %d", resp.Code)
	}
}
