// Package main is the entry point for the rain alert job.
//
// Inside AWS Lambda the function is invoked by an EventBridge schedule every
// ALERT_INTERVAL with a scheduler.AlertPayload. Outside Lambda the same job
// runs from a ticker aligned to interval boundaries until SIGINT or SIGTERM.
//
// Cold Start (main):
//  1. Load configuration (Discord webhook URLs may come from SSM).
//  2. Initialize structured logger.
//  3. Build the WebhookChannel (rate limited, circuit breaker, retries).
//  4. Build CloudWatch alert metrics when CLOUDWATCH_ENABLED is set.
//  5. Build the RainAlerter and start the Lambda handler or local loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"raceweather/internal/config"
	"raceweather/internal/notifications/webhook"
	"raceweather/internal/scheduler"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(config.ProviderFromEnv())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	typedLogger := types.NewSlogLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channel, err := webhook.NewWebhookChannel(&cfg.Webhook, webhook.FormatOptions{
		Username:  cfg.Discord.Username,
		AvatarURL: cfg.Discord.AvatarURL,
	}, typedLogger)
	if err != nil {
		return fmt.Errorf("creating webhook channel: %w", err)
	}

	destinations := make([]string, 0, len(cfg.Discord.WebhookURLs))
	for _, u := range cfg.Discord.WebhookURLs {
		dest := u.Unmask()
		if err := channel.ValidateDestination(dest); err != nil {
			return fmt.Errorf("invalid webhook destination: %w", err)
		}
		if warning, deprecated := channel.Registry().CheckDeprecation(dest); deprecated {
			logger.Warn(warning)
		}
		destinations = append(destinations, dest)
	}

	metrics, err := newAlertMetrics(ctx, cfg, typedLogger)
	if err != nil {
		return err
	}

	alerter, err := scheduler.NewRainAlerter(
		weather.NewForecaster(weather.DefaultSchedule()),
		channel,
		destinations,
		cfg.Alerts.LeadTime,
		cfg.Alerts.Interval,
		metrics,
		logger,
	)
	if err != nil {
		return err
	}

	logger.Info("rain alerter initialized",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"destinations", len(destinations),
		"lead_time", cfg.Alerts.LeadTime.String(),
		"interval", cfg.Alerts.Interval.String(),
		"cloudwatch", cfg.Observability.CloudWatchEnabled,
	)

	handler := &Handler{alerter: alerter, clock: types.RealClock{}, logger: logger}

	if isLambdaEnvironment() {
		lambda.Start(handler.Handle)
		return nil
	}
	return runLocal(ctx, handler, cfg.Alerts.Interval, logger)
}

// newAlertMetrics returns CloudWatch metrics when enabled, otherwise a no-op.
func newAlertMetrics(ctx context.Context, cfg *config.Config, logger types.Logger) (scheduler.AlertMetrics, error) {
	if !cfg.Observability.CloudWatchEnabled {
		return scheduler.NoopAlertMetrics{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS SDK config: %w", err)
	}
	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	return scheduler.NewCloudWatchAlertMetrics(client, cfg.Observability.MetricNamespace, logger), nil
}

// alertRunner is the subset of scheduler.RainAlerter used by Handler.
type alertRunner interface {
	Run(ctx context.Context, now time.Time) (*scheduler.AlertRun, error)
}

// Handler adapts the alerter to the Lambda and local entry points.
type Handler struct {
	alerter alertRunner
	clock   types.Clock
	logger  *slog.Logger
}

// Handle runs one evaluation. A ReferenceTime in the payload replays that
// instant instead of now.
func (h *Handler) Handle(ctx context.Context, payload scheduler.AlertPayload) (*scheduler.AlertRun, error) {
	now := h.clock.Now()
	if payload.ReferenceTime != nil {
		now = payload.ReferenceTime.UTC()
		h.logger.Info("replaying reference time", "reference_time", now)
	}

	run, err := h.alerter.Run(ctx, now)
	if err != nil {
		h.logger.Error("rain alert run failed", "error", err)
		return nil, err
	}
	return run, nil
}

// runLocal runs the job immediately and then on every interval boundary.
// The first run may land mid-interval; ShouldAlert snaps it to its tick.
func runLocal(ctx context.Context, h *Handler, interval time.Duration, logger *slog.Logger) error {
	logger.Info("running local alert loop")

	for {
		if _, err := h.Handle(ctx, scheduler.AlertPayload{}); err != nil && ctx.Err() == nil {
			logger.Warn("alert run failed, waiting for next tick", "error", err)
		}

		now := h.clock.Now()
		wait := now.Truncate(interval).Add(interval).Sub(now)

		select {
		case <-ctx.Done():
			logger.Info("rain alerter stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
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
