package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// VideoHandler serves metadata lookups
type VideoHandler struct {
	extractor domain.Extractor
	logger    *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(extractor domain.Extractor, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		extractor: extractor,
		logger:    logger,
	}
}

// VideoInfoRequest represents a metadata lookup request
type VideoInfoRequest struct {
	URL string `json:"url"`
}

// VideoInfoResponse is VideoInfo flattened next to the success flag
type VideoInfoResponse struct {
	Success bool `json:"success"`
	*domain.VideoInfo
}

// GetVideoInfo handles POST /api/video-info
func (h *VideoHandler) GetVideoInfo(c *gin.Context) {
	var req VideoInfoRequest
	// A malformed body is reported the same way as a missing url
	_ = c.ShouldBindJSON(&req)

	url := req.URL
	if url == "" {
		c.JSON(http.StatusOK, failure("No URL provided"))
		return
	}

	info, err := h.extractor.Inspect(c.Request.Context(), url)
	if err != nil {
		h.logger.Warn("Failed to extract video info", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusOK, failure(err.Error()))
		return
	}

	c.JSON(http.StatusOK, VideoInfoResponse{Success: true, VideoInfo: info})
}

func failure(message string) gin.H {
	return gin.H{"success": false, "error": message}
}
