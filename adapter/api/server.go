// Package api provides the HTTP API for mentorship scheduling.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/identity/infrastructure/token"
	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the HTTP API server.
type Server struct {
	echo      *echo.Echo
	server    *http.Server
	logger    *slog.Logger
	metrics   observability.Metrics
	tokens    *token.Manager
	directory identity.Directory
	health    *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    "64K",
	}
}

// Dependencies are the collaborators the server routes to. Health and
// MetricsHandler are optional.
type Dependencies struct {
	Schedules      *ScheduleHandler
	Tokens         *token.Manager
	Directory      identity.Directory
	Health         *observability.HealthRegistry
	MetricsHandler http.Handler
	Metrics        observability.Metrics
	Logger         *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	health := deps.Health
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		logger:    logger,
		metrics:   metrics,
		tokens:    deps.Tokens,
		directory: deps.Directory,
		health:    health,
	}
	e.HTTPErrorHandler = s.handleError

	s.registerRoutes(cfg, deps)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes(cfg ServerConfig, deps Dependencies) {
	s.echo.Use(
		requestContext(),
		s.accessLog(),
		middleware.RecoverWithConfig(middleware.RecoverConfig{
			LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
				s.logger.ErrorContext(c.Request().Context(), "panic recovered",
					"error", err,
					"stack", string(stack),
				)
				return err
			},
		}),
	)
	if cfg.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/readyz", s.handleReady)
	if deps.MetricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(deps.MetricsHandler))
	}

	h := deps.Schedules
	v1 := s.echo.Group("/api/v1", s.authenticate())
	schedules := v1.Group("/schedules")
	schedules.POST("/request", h.RequestMeeting, requireCapability(identity.CapRequestMeeting))
	schedules.GET("", h.ListSchedules, requireCapability(identity.CapListSchedules))
	schedules.GET("/:id", h.GetSchedule)
	schedules.PUT("/:id/status", h.UpdateStatus, requireCapability(identity.CapUpdateMeetingStatus))
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": string(observability.HealthStatusHealthy),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady runs the registered readiness checks.
func (s *Server) handleReady(c echo.Context) error {
	result := s.health.Check(c.Request().Context())
	status := http.StatusOK
	if result.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, result)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the API server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting scheduling API server",
		"addr", s.server.Addr,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down scheduling API server")
	return s.server.Shutdown(ctx)
}
