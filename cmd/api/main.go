// Package main is the entry point for the race weather API server.
//
// It loads configuration, builds the core chassis (middleware, routing,
// health checks, Prometheus metrics), mounts the weather and race handlers
// and serves HTTP until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"raceweather/internal/api/handlers"
	"raceweather/internal/config"
	"raceweather/internal/core"
	"raceweather/internal/notifications/webhook"
	"raceweather/internal/races"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(config.ProviderFromEnv())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("race weather API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	srv, err := buildServer(cfg, logger, types.RealClock{})
	if err != nil {
		return err
	}
	return runHTTPServer(srv, cfg, logger)
}

// buildServer wires the chassis and domain handlers and mounts all routes.
func buildServer(cfg *config.Config, logger *slog.Logger, clock types.Clock) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	metrics := core.NewPrometheusMetrics("raceweather")
	srv.Metrics = metrics
	srv.MetricsHandler = metrics.Handler()

	forecaster := weather.NewForecaster(weather.DefaultSchedule())
	calendar := races.DefaultCalendar()
	formatOpts := webhook.FormatOptions{
		Username:  cfg.Discord.Username,
		AvatarURL: cfg.Discord.AvatarURL,
	}

	weatherHandler := handlers.NewWeatherHandler(
		forecaster, clock, cfg.Display.Location(), formatOpts, srv.Validator, logger,
	)
	raceHandler := handlers.NewRaceHandler(
		calendar, forecaster, clock, formatOpts, srv.Validator, logger,
	)

	srv.HealthProbes = append(srv.HealthProbes, handlers.NewScheduleProbe(forecaster, clock))
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
		r.Route("/weather", weatherHandler.RegisterRoutes)
		r.Route("/races", raceHandler.RegisterRoutes)
	})

	srv.MountRoutes()
	return srv, nil
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
