package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/internal/app"
	"github.com/yourusername/ytgrab-go/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	runner  *app.JobRunner
	store   *app.ProgressStore
	gateway *app.FileGateway
	logger  *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(runner *app.JobRunner, store *app.ProgressStore, gateway *app.FileGateway, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		runner:  runner,
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// StartDownload handles POST /api/download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req domain.JobRequest
	_ = c.ShouldBindJSON(&req)

	err := h.runner.Start(req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Download started"})
	case errors.Is(err, domain.ErrMissingParameters):
		c.JSON(http.StatusOK, failure("Missing parameters"))
	case errors.Is(err, domain.ErrJobInProgress):
		c.JSON(http.StatusConflict, failure("Download already in progress"))
	default:
		h.logger.Error("Failed to start download", zap.String("video_id", req.JobID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, failure(err.Error()))
	}
}

// GetProgress handles GET /api/progress/:video_id
func (h *DownloadHandler) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get(c.Param("video_id")))
}

// ServeFile handles GET /api/downloads/:filename
func (h *DownloadHandler) ServeFile(c *gin.Context) {
	filename := c.Param("filename")

	path, err := h.gateway.Resolve(filename)
	if err != nil {
		h.logger.Debug("Download file rejected", zap.String("filename", filename), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	c.FileAttachment(path, filename)
}
