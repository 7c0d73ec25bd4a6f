// Package config defines the configuration structure for the race weather
// service. Configuration is loaded once at process start (Lambda cold start or
// server boot) and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format makes LoadConfig fail and the
// entry point exits immediately (fail fast).
package config

import (
	"time"

	"raceweather/internal/types"
)

// SecretString is an alias for types.SecretString. Discord webhook URLs embed
// their auth token, so they are carried as secrets.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"raceweather"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Discord       DiscordConfig
	Webhook       WebhookConfig
	Alerts        AlertConfig
	Display       DisplayConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	// Per-client token bucket; zero RateLimitRPS disables limiting.
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5" validate:"gte=0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20" validate:"gte=1"`
}

// DiscordConfig holds the destinations and identity used for posted panels.
type DiscordConfig struct {
	// WebhookURLs may be empty; the alerter then runs as a dry run.
	WebhookURLs []SecretString `envconfig:"DISCORD_WEBHOOK_URLS"`
	Username    string         `envconfig:"WEBHOOK_USERNAME" default:"Race Weather"`
	AvatarURL   string         `envconfig:"WEBHOOK_AVATAR_URL" validate:"omitempty,url"`
}

// WebhookConfig holds settings for outbound webhook delivery.
type WebhookConfig struct {
	UserAgent      string        `envconfig:"WEBHOOK_USER_AGENT" default:"RaceWeather-Webhook/1.0"`
	DefaultTimeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s" validate:"gt=0"`
	// Discord allows roughly 5 requests per 2 seconds per webhook.
	RatePerSecond float64 `envconfig:"WEBHOOK_RATE_PER_SECOND" default:"2" validate:"gt=0"`
	Burst         int     `envconfig:"WEBHOOK_BURST" default:"5" validate:"gte=1"`
	MaxRetries    int     `envconfig:"WEBHOOK_MAX_RETRIES" default:"3" validate:"gte=0,lte=10"`
}

// AlertConfig controls the rain alert job.
type AlertConfig struct {
	LeadTime time.Duration `envconfig:"ALERT_LEAD_TIME" default:"10m" validate:"gt=0"`
	Interval time.Duration `envconfig:"ALERT_INTERVAL" default:"1m" validate:"gt=0,ltefield=LeadTime"`
}

// DisplayConfig controls how instants are rendered in panels.
type DisplayConfig struct {
	Timezone string `envconfig:"DISPLAY_TIMEZONE" default:"UTC" validate:"timezone"`
}

// AWSConfig holds AWS regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace   string `envconfig:"METRICS_NAMESPACE" default:"RaceWeather"`
	CloudWatchEnabled bool   `envconfig:"CLOUDWATCH_ENABLED" default:"false"`
}

// Location resolves the display timezone. Validation guarantees it loads.
func (d DisplayConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
