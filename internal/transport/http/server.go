package http

import (
	stdhttp "net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codepair/codepair-server/internal/config"
	"github.com/codepair/codepair-server/internal/core"
	"github.com/codepair/codepair-server/internal/store"
)

// NewServer builds the HTTP server: health, the WebSocket endpoint,
// room diagnostics, and the frontend build when a static dir is set.
func NewServer(hub *core.Hub, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, st, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter assembles the gin engine. Split out of NewServer so tests
// can mount it on httptest.
func NewRouter(hub *core.Hub, st store.Store, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	rooms := NewRoomHandlers(hub, st, logger)
	api := router.Group("/api")
	api.GET("/rooms/:id", rooms.GetRoom)
	api.GET("/rooms/:id/executions", rooms.GetExecutions)

	if cfg.StaticDir != "" {
		router.NoRoute(staticHandler(cfg.StaticDir))
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// staticHandler serves the frontend build, falling back to index.html
// for client-side routes.
func staticHandler(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != stdhttp.MethodGet {
			c.Status(stdhttp.StatusNotFound)
			return
		}
		reqPath := strings.TrimPrefix(filepath.Clean(c.Request.URL.Path), "/")
		full := filepath.Join(dir, reqPath)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			c.File(full)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
