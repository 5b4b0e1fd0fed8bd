package api

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/api/handlers"
	"github.com/yourusername/ytgrab-go/api/middleware"
	"github.com/yourusername/ytgrab-go/internal/app"
	"github.com/yourusername/ytgrab-go/internal/domain"
	"github.com/yourusername/ytgrab-go/web"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	extractor domain.Extractor,
	runner *app.JobRunner,
	store *app.ProgressStore,
	gateway *app.FileGateway,
	log *zap.Logger,
) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(runner, store)
	router.GET("/health", healthHandler.Health)

	videoHandler := handlers.NewVideoHandler(extractor, log)
	downloadHandler := handlers.NewDownloadHandler(runner, store, gateway, log)
	wsHandler := handlers.NewProgressWebSocketHandler(store, log)

	api := router.Group("/api")
	{
		api.POST("/video-info", videoHandler.GetVideoInfo)
		api.POST("/download", downloadHandler.StartDownload)
		api.GET("/progress/:video_id", downloadHandler.GetProgress)
		api.GET("/progress/:video_id/ws", wsHandler.HandleWebSocket)
		api.GET("/downloads/:filename", downloadHandler.ServeFile)
	}

	// Embedded web UI
	staticFS := web.GetStaticFS()
	router.GET("/", func(c *gin.Context) {
		serveFile(c, staticFS, "index.html")
	})
	router.GET("/static/*filepath", func(c *gin.Context) {
		serveFile(c, staticFS, strings.TrimPrefix(path.Clean(c.Param("filepath")), "/"))
	})

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}

// serveFile serves a file from the embedded filesystem with its content type
func serveFile(c *gin.Context, staticFS fs.FS, filePath string) {
	content, err := fs.ReadFile(staticFS, filePath)
	if err != nil {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, content)
}
