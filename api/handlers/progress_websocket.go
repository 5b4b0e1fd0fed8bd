package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/internal/app"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	pingInterval        = 30 * time.Second
	writeWait           = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressWebSocketHandler pushes progress snapshots of one job over a WebSocket
type ProgressWebSocketHandler struct {
	store        *app.ProgressStore
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewProgressWebSocketHandler creates a new WebSocket handler
func NewProgressWebSocketHandler(store *app.ProgressStore, logger *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		store:        store,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// HandleWebSocket handles GET /api/progress/:video_id/ws.
// The current snapshot is sent on connect and again whenever it changes.
// The connection is closed by the server after a terminal snapshot.
func (h *ProgressWebSocketHandler) HandleWebSocket(c *gin.Context) {
	jobID := c.Param("video_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket", zap.String("video_id", jobID), zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("Progress subscriber connected",
		zap.String("video_id", jobID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Drain client frames so close and pong messages are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	var last []byte
	for {
		snapshot := h.store.Get(jobID)
		data, err := json.Marshal(snapshot)
		if err != nil {
			h.logger.Error("Failed to marshal snapshot", zap.String("video_id", jobID), zap.Error(err))
			return
		}

		if !bytes.Equal(data, last) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("Progress subscriber gone", zap.String("video_id", jobID), zap.Error(err))
				return
			}
			last = data
		}

		if snapshot.IsTerminal() {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(snapshot.State)))
			return
		}

		select {
		case <-poll.C:
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
