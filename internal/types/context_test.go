package types

import (
	"context"
	"testing"
)

// mockLogger implements the Logger interface for testing purposes.
type mockLogger struct {
	messages []string
}

func (m *mockLogger) Info(msg string, args ...any)  { m.messages = append(m.messages, "info:"+msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.messages = append(m.messages, "error:"+msg) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.messages = append(m.messages, "warn:"+msg) }
func (m *mockLogger) With(args ...any) Logger       { return m }

func TestWithRequestID_GetRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want req-123", got)
	}

	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestWithLogger_LoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Error("expected nil logger on empty context")
	}

	l := &mockLogger{}
	ctx := WithLogger(context.Background(), l)
	got := LoggerFromContext(ctx)
	if got == nil {
		t.Fatal("expected logger, got nil")
	}
	got.Info("hello")
	if len(l.messages) != 1 || l.messages[0] != "info:hello" {
		t.Errorf("messages = %v", l.messages)
	}
}

func TestContextValues_DoNotInterfere(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithLogger(ctx, &mockLogger{})
	ctx = context.WithValue(ctx, "request_id", "plain-string-key") //nolint:staticcheck

	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want req-1", got)
	}
}

func TestSlogLogger_SatisfiesLogger(t *testing.T) {
	var l Logger = NewSlogLogger(nil)
	if l.With("k", "v") == nil {
		t.Error("With returned nil")
	}
}
