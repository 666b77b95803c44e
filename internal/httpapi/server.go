// Package httpapi exposes appraisal editing sessions to a web front end.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/service"
)

// Server routes HTTP requests to the appraisal service and the live
// editing sessions.
type Server struct {
	appraisals service.AppraisalService
	sessions   *editor.Manager
	logger     *slog.Logger
	router     *gin.Engine
}

func NewServer(appraisals service.AppraisalService, sessions *editor.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		appraisals: appraisals,
		sessions:   sessions,
		logger:     logger,
		router:     gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger(logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/templates", s.listTemplates)
	s.router.POST("/imports", s.importAppraisal)

	appraisals := s.router.Group("/appraisals")
	{
		appraisals.POST("", s.createAppraisal)
		appraisals.GET("", s.listAppraisals)
		appraisals.GET("/:id", s.getAppraisal)
		appraisals.DELETE("/:id", s.deleteAppraisal)
		appraisals.GET("/:id/completion", s.completionReport)
		appraisals.GET("/:id/export", s.exportAppraisal)

		appraisals.POST("/:id/session", s.loadSession)
		appraisals.DELETE("/:id/session", s.closeSession)
		appraisals.PATCH("/:id/sections/:section", s.updateSection)
		appraisals.PUT("/:id/adjustments", s.updateAdjustments)
		appraisals.PUT("/:id/effective-age", s.updateEffectiveAge)
		appraisals.POST("/:id/sync", s.triggerSync)
		appraisals.POST("/:id/save", s.saveNow)
		appraisals.GET("/:id/status", s.status)
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}
