package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aptosflow/aptosflow/internal/application/coordinator"
	"github.com/aptosflow/aptosflow/internal/application/engine"
	"github.com/aptosflow/aptosflow/internal/application/registry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server.
type Server struct {
	router      *gin.Engine
	server      *http.Server
	coordinator *coordinator.Coordinator
	registry    *registry.Registry
	validator   *registry.ConnectionValidator
	engine      *engine.Engine
	logger      *zap.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Port        int
	Coordinator *coordinator.Coordinator
	Registry    *registry.Registry
	Validator   *registry.ConnectionValidator
	Engine      *engine.Engine
	Logger      *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:      router,
		coordinator: cfg.Coordinator,
		registry:    cfg.Registry,
		validator:   cfg.Validator,
		engine:      cfg.Engine,
		logger:      cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Workflow endpoints
		v1.POST("/workflows", s.handleRegisterWorkflow)
		v1.GET("/workflows", s.handleListWorkflows)
		v1.GET("/workflows/:id/status", s.handleWorkflowStatus)
		v1.GET("/workflows/:id/history", s.handleWorkflowHistory)
		v1.DELETE("/workflows/:id", s.handleUnregisterWorkflow)
		v1.POST("/workflows/:id/events", s.handleInjectEvent)
		v1.POST("/workflows/:id/execute", s.handleManualExecute)

		// Canvas support
		v1.POST("/connections/validate", s.handleValidateConnection)
		v1.POST("/pipelines/parse", s.handleParsePipeline)
		v1.POST("/pipelines/run", s.handleRunPipeline)
	}
}

// SetupWebSocket adds the workflow stream handler to the server.
func (s *Server) SetupWebSocket(handler interface {
	HandleWorkflowStream(*gin.Context)
}) {
	s.router.GET("/api/v1/workflows/:id/ws", handler.HandleWorkflowStream)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// requestLogger is a middleware for request logging.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
