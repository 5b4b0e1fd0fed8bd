package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ytgrab-go/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	runner *app.JobRunner
	store  *app.ProgressStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(runner *app.JobRunner, store *app.ProgressStore) *HealthHandler {
	return &HealthHandler{
		runner: runner,
		store:  store,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Jobs    struct {
		Active  int `json:"active"`
		Tracked int `json:"tracked"`
	} `json:"jobs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Jobs.Active = h.runner.ActiveJobs()
	response.Jobs.Tracked = h.store.Len()

	c.JSON(http.StatusOK, response)
}
