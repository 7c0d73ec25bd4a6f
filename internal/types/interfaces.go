package types

import (
	"context"
	"log/slog"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a Clock frozen at a single instant.
type FixedClock time.Time

// Now returns the frozen instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Logger defines the structured logging interface used throughout the service.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	*slog.Logger
}

// NewSlogLogger wraps l. A nil l falls back to slog.Default().
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{Logger: l}
}

// With returns a child logger carrying args.
func (l SlogLogger) With(args ...any) Logger {
	return SlogLogger{Logger: l.Logger.With(args...)}
}

// NotificationChannel delivers a pre-formatted payload to one destination.
type NotificationChannel interface {
	// Type returns the channel type (e.g., "webhook").
	Type() ChannelType

	// Deliver executes the transmission.
	Deliver(ctx context.Context, payload []byte, destination string) (*DeliveryResult, error)

	// ShouldRetry inspects an error to determine if it is transient.
	ShouldRetry(err error) bool
}
