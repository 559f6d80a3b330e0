// Package server exposes the search-chat pipeline over HTTP with gin.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"explainer/internal/common/config"
	apperrors "explainer/internal/common/errors"
	"explainer/internal/common/logger"
	searchchat "explainer/internal/pipeline/search-chat"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web/index.html
var indexHTML []byte

const defaultShutdownTimeout = 10 * time.Second

// Chat runs one search-chat turn.
type Chat interface {
	Execute(ctx context.Context, input *searchchat.Input) (*searchchat.Output, error)
}

type Server struct {
	config *config.Config
	chat   Chat
	engine *gin.Engine
	logger logger.Logger
}

func New(cfg *config.Config, chat Chat, log logger.Logger) *Server {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	}

	s := &Server{
		config: cfg,
		chat:   chat,
		engine: gin.New(),
		logger: log.WithFields(map[string]interface{}{"component": "http"}),
	}
	s.engine.Use(recovery(s.logger), requestLogger(s.logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.index)
	s.engine.GET("/healthz", s.health)
	s.engine.POST("/search-chat", s.searchChat)
	if s.config.Metrics.IsEnabled() {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}
}

// Handler returns the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Server.Address,
		Handler:      s.engine,
		ReadTimeout:  config.GetDuration(s.config.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(s.config.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"address": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := config.GetDuration(s.config.Server.ShutdownTimeout)
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	s.logger.Info("Shutdown signal received, draining requests", map[string]interface{}{"timeout": timeout.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped gracefully", nil)
	return nil
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// searchChat always answers HTTP 200 with an envelope, except on fatal
// configuration errors which abort with an empty 500.
func (s *Server) searchChat(c *gin.Context) {
	var input searchchat.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		s.logger.Warn("malformed search-chat body", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusOK, searchchat.Output{
			Message: apperrors.UserMessage(apperrors.ErrCodeValidation),
			Status:  http.StatusBadRequest,
		})
		return
	}

	out, err := s.chat.Execute(c.Request.Context(), &input)
	if err != nil {
		s.logger.Error("search-chat failed fatally", map[string]interface{}{"error": err.Error()})
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, out)
}
