package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/cocursor/backend/internal/infrastructure/log"
	"github.com/cocursor/backend/internal/infrastructure/websocket"
	"github.com/cocursor/backend/internal/interfaces/http/handler"
	"github.com/cocursor/backend/internal/interfaces/mcp"
	"github.com/gin-gonic/gin"
)

// HTTPServer is the daemon's HTTP entry point.
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer builds the router and registers every route group.
func NewServer(
	fsbuildHandler *handler.FSBuildHandler,
	mcpServer *mcp.MCPServer,
	hub *websocket.Hub,
) *HTTPServer {
	router := gin.Default()

	logger := log.NewModuleLogger("http", "server")

	api := router.Group("/api/v1")
	{
		fsbuild := api.Group("/fsbuild")
		{
			fsbuild.GET("/dirty", fsbuildHandler.DirtySources)
			fsbuild.GET("/has-work", fsbuildHandler.HasWorkToDo)
			fsbuild.POST("/mark-up-to-date", fsbuildHandler.MarkAllUpToDate)
			fsbuild.GET("/unprocessed-changes", fsbuildHandler.HasUnprocessedChanges)
			fsbuild.POST("/run-build", fsbuildHandler.RunBuild)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ws/fsbuild", func(c *gin.Context) {
		module := c.Query("module")
		if module == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "module is required"})
			return
		}
		if err := hub.ServeWS(c.Writer, c.Request, module); err != nil {
			logger.Error("websocket upgrade failed", "error", err)
		}
	})

	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: ":19960",
		logger:   logger,
	}
}

// Start runs the HTTP server, blocking until it stops.
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop stops the server with a bounded timeout.
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
