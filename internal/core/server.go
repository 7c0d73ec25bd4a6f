// Package core provides the API chassis for the race weather service.
// It owns the chi router and the global middleware chain that runs before
// requests reach the domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"raceweather/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
type MetricsCollector interface {
	// RecordRequest records latency and count for one request. endpoint is
	// the chi route pattern, not the raw path.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of handlers under /v1.
type RouteRegistrar func(r chi.Router)

// Server encapsulates all dependencies for the API, allowing for easy
// injection during testing and distinct configuration per environment.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler

	// V1RouteRegistrars are populated by main to avoid import cycles
	// between core and the handler packages.
	V1RouteRegistrars []RouteRegistrar

	limiter *ClientRateLimiter
	router  *chi.Mux
}

// NewServer initializes dependencies and prepares the server for route
// mounting. The caller mounts routes with MountRoutes after construction.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}
	if cfg.Server.RateLimitRPS > 0 {
		s.limiter = NewClientRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.Logger.Info("server shutdown complete")
	return nil
}
