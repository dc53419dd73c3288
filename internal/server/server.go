// Package server implements the HTTP dashboard API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amosWeiskopf/profilesmith/internal/config"
	"github.com/amosWeiskopf/profilesmith/pkg/profiler"
	"github.com/amosWeiskopf/profilesmith/pkg/reporter"
)

const shutdownTimeout = 10 * time.Second

// Server serves the dashboard API on top of a profiler service
type Server struct {
	cfg      config.ServerConfig
	service  *profiler.Service
	reporter *reporter.Reporter
	logger   *zap.Logger
	router   *gin.Engine
}

// New creates a Server and registers its routes
func New(cfg config.ServerConfig, service *profiler.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:      cfg,
		service:  service,
		reporter: reporter.New(),
		logger:   logger.With(zap.String("component", "server")),
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger(s.logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.index)
	s.router.GET("/health", s.health)

	s.router.POST("/crawl", s.crawl)
	s.router.POST("/aggregate", s.aggregate)

	s.router.GET("/data/list", s.listData)
	s.router.GET("/data/:filename", s.getData)
	s.router.POST("/data/:filename", s.deleteData)
	s.router.DELETE("/data/:filename", s.deleteData)

	s.router.GET("/results", s.results)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down dashboard")
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
