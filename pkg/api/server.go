package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hookrun/pkg/api/middleware"
	"hookrun/pkg/auth"
	"hookrun/pkg/coordination"
	"hookrun/pkg/storage"
)

// Server encapsulates the trigger API server and its dependencies.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	queue       storage.Queue
	coordinator coordination.Coordinator
	validator   *middleware.Validator
	log         *zap.Logger
}

// Config holds API server configuration.
type Config struct {
	Port        string
	Queue       storage.Queue
	Coordinator coordination.Coordinator
	JWTService  *auth.JWTService
	APIKeyStore auth.APIKeyStore
	Logger      *zap.Logger
}

// NewServer creates a new trigger API server with all dependencies.
func NewServer(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware stack (order matters)
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.TracingMiddleware("hookrun-api"))
	router.Use(requestLogger(cfg.Logger))
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.BodySizeLimitMiddleware(2 << 20)) // 2MB body limit

	s := &Server{
		router:      router,
		queue:       cfg.Queue,
		coordinator: cfg.Coordinator,
		validator:   middleware.NewValidator(middleware.DefaultValidatorConfig()),
		log:         cfg.Logger,
	}

	s.registerRoutes(cfg)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.log.Info("API server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes(cfg Config) {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	if cfg.JWTService != nil || cfg.APIKeyStore != nil {
		v1.Use(middleware.AuthMiddleware(middleware.AuthConfig{
			JWTService:  cfg.JWTService,
			APIKeyStore: cfg.APIKeyStore,
		}))
	}
	{
		runs := v1.Group("/runs")
		if cfg.JWTService != nil || cfg.APIKeyStore != nil {
			runs.Use(middleware.RequireRole(auth.RoleOperator))
		}
		runs.POST("", s.createRun)

		cluster := v1.Group("/cluster")
		cluster.GET("/nodes", s.listNodes)
	}
}

// requestLogger logs HTTP requests through zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// healthCheck returns server health status with dependency checks.
func (s *Server) healthCheck(c *gin.Context) {
	deps := map[string]bool{
		"redis": s.queue != nil,
		"etcd":  s.coordinator != nil,
	}

	healthy := true
	for _, ok := range deps {
		if !ok {
			healthy = false
			break
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":       status,
		"dependencies": deps,
		"timestamp":    time.Now().UTC(),
	})
}
