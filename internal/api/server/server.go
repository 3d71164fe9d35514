package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/api/middleware"
	"github.com/feral-file/chain-estates/internal/api/rest"
	"github.com/feral-file/chain-estates/internal/ledger"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/ratelimit"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins restricts CORS; empty allows every origin
	AllowedOrigins []string
	Auth           middleware.AuthConfig
	// RateLimit throttles writes per caller; a zero rate disables it
	RateLimit ratelimit.Config
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	ledger     ledger.Ledger
	clock      adapter.Clock
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// New creates a new API server. Metrics registered on registry are exposed at /metrics.
func New(cfg Config, l ledger.Ledger, clock adapter.Clock, registry *prometheus.Registry, m *metrics.Metrics) *Server {
	s := &Server{
		config:   cfg,
		ledger:   l,
		clock:    clock,
		registry: registry,
		metrics:  m,
	}
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler builds the router with all middleware and routes
func (s *Server) Handler() http.Handler {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(s.metrics))
	router.Use(middleware.CORS(s.config.AllowedOrigins))

	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})))
	}

	var limiter ratelimit.Limiter
	if s.config.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimit.NewLimiter(s.config.RateLimit, s.clock)
	}

	rest.SetupRoutes(router, rest.NewHandler(s.ledger, s.clock), s.config.Auth, limiter)

	return router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	logger.Info("Starting API server",
		zap.String("address", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
