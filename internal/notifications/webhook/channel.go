// Package webhook delivers panels to chat webhooks.
//
// It handles platform auto-detection (Discord, Slack, generic), payload
// formatting with platform-specific JSON schemas, and HTTP delivery through
// external.BaseClient so every post is rate limited, retried and guarded by a
// circuit breaker.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"raceweather/internal/config"
	"raceweather/internal/external"
	"raceweather/internal/panels"
	"raceweather/internal/types"
)

// maxResponseBodyRead limits how much of a response body we read for error
// messages and provider message ID extraction.
const maxResponseBodyRead = 4096

// defaultRetryAfter is reported when an upstream rate limit outlasts our retries.
const defaultRetryAfter = 60 * time.Second

// Compile-time assertion that WebhookChannel implements types.NotificationChannel.
var _ types.NotificationChannel = (*WebhookChannel)(nil)

// WebhookChannel implements types.NotificationChannel for webhook delivery.
type WebhookChannel struct {
	registry *PlatformRegistry
	client   *external.BaseClient
	opts     FormatOptions
	logger   types.Logger
	clock    types.Clock
}

// NewWebhookChannel creates a WebhookChannel whose HTTP client honours the
// configured timeout, retry budget and rate limit.
func NewWebhookChannel(cfg *config.WebhookConfig, opts FormatOptions, logger types.Logger) (*WebhookChannel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("webhook channel: config is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("webhook channel: logger is nil")
	}

	httpClient := &http.Client{Timeout: cfg.DefaultTimeout}
	return NewWebhookChannelWithClient(cfg, httpClient, opts, logger,
		external.WithRateLimit(cfg.RatePerSecond, cfg.Burst),
	), nil
}

// NewWebhookChannelWithClient creates a WebhookChannel with a caller-supplied
// HTTP client and BaseClient options.
func NewWebhookChannelWithClient(
	cfg *config.WebhookConfig,
	httpClient *http.Client,
	opts FormatOptions,
	logger types.Logger,
	clientOpts ...external.BaseClientOption,
) *WebhookChannel {
	policy := external.DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries

	return &WebhookChannel{
		registry: NewPlatformRegistry(),
		client:   external.NewBaseClient(httpClient, "webhook", policy, cfg.UserAgent, clientOpts...),
		opts:     opts,
		logger:   logger,
		clock:    types.RealClock{},
	}
}

// SetClock overrides the clock for testing.
func (w *WebhookChannel) SetClock(c types.Clock) {
	w.clock = c
}

// Type returns the channel type identifier for webhooks.
func (w *WebhookChannel) Type() types.ChannelType {
	return types.ChannelWebhook
}

// Registry exposes the platform registry for deprecation checks.
func (w *WebhookChannel) Registry() *PlatformRegistry {
	return w.registry
}

// ValidateDestination checks that a webhook URL is usable.
func (w *WebhookChannel) ValidateDestination(destination string) error {
	if destination == "" {
		return types.NewAppError(types.ErrCodeValidationInvalidWebhook, "webhook destination is empty", nil)
	}
	u, err := url.Parse(destination)
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationInvalidWebhook, "webhook destination is not a URL", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return types.NewAppError(types.ErrCodeValidationInvalidWebhook, "webhook destination must use HTTPS", nil)
	}
	if u.Host == "" {
		return types.NewAppError(types.ErrCodeValidationInvalidWebhook, "webhook destination has no host", nil)
	}
	return nil
}

// Format renders a panel for the platform detected from destination.
func (w *WebhookChannel) Format(ctx context.Context, p *panels.Panel, destination string) ([]byte, Platform, error) {
	if p == nil {
		return nil, "", fmt.Errorf("webhook channel: panel is nil")
	}

	platform := w.registry.Detect(destination, "")
	payload, err := w.registry.Get(platform).Format(ctx, p, w.opts)
	if err != nil {
		return nil, platform, err
	}
	return payload, platform, nil
}

// Send formats p for destination and delivers it.
func (w *WebhookChannel) Send(ctx context.Context, p *panels.Panel, destination string) (*types.DeliveryResult, error) {
	payload, platform, err := w.Format(ctx, p, destination)
	if err != nil {
		return nil, err
	}

	w.logger.Info("sending panel",
		"kind", string(p.Kind),
		"platform", string(platform),
		"destination", redactDestination(destination),
	)
	return w.Deliver(ctx, payload, destination)
}

// Deliver POSTs a pre-formatted payload to destination.
//
// Response handling:
//   - 2xx: Validate platform-specific response body, return success
//   - 429 after retries: Retryable=true with RetryAfter
//   - 404/410: Terminal=true (the webhook was deleted)
//   - Other 4xx: Retryable=false (permanent failure)
//   - 5xx or network failure after retries: Retryable=true
func (w *WebhookChannel) Deliver(ctx context.Context, payload []byte, destination string) (*types.DeliveryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, withWait(destination), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("webhook deliver: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	redacted := redactDestination(destination)
	w.logger.Info("delivering webhook",
		"destination", redacted,
		"payload_size", len(payload),
	)

	resp, err := w.client.Do(req)
	if err != nil {
		return w.handleTransportError(err, redacted)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return w.handleGone(resp.StatusCode, redacted)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return w.handle2xx(resp, body, destination)

	default:
		return w.handle4xx(resp, body, redacted)
	}
}

// handleTransportError maps BaseClient failures, which only surface after the
// retry budget is spent or the breaker is open.
func (w *WebhookChannel) handleTransportError(err error, destination string) (*types.DeliveryResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamRateLimited {
		retryAfter := defaultRetryAfter
		w.logger.Warn("webhook rate limited (429)",
			"destination", destination,
			"retry_after_seconds", retryAfter.Seconds(),
		)
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusRetrying,
			FailureReason: fmt.Sprintf("rate_limited_429: retry after %s", retryAfter),
			Retryable:     true,
			RetryAfter:    &retryAfter,
		}, nil
	}

	w.logger.Warn("webhook upstream failure",
		"destination", destination,
		"error", err.Error(),
	)
	return &types.DeliveryResult{
		Status:        types.DeliveryStatusFailed,
		FailureReason: fmt.Sprintf("upstream_error: %v", err),
		Retryable:     true,
	}, nil
}

// handleGone returns a Terminal result; the destination should be removed.
func (w *WebhookChannel) handleGone(status int, destination string) (*types.DeliveryResult, error) {
	w.logger.Warn("webhook endpoint gone",
		"destination", destination,
		"status", status,
	)

	return &types.DeliveryResult{
		Status:        types.DeliveryStatusFailed,
		FailureReason: fmt.Sprintf("endpoint_gone_%d", status),
		Terminal:      true,
	}, nil
}

// handle2xx validates platform-specific response bodies (e.g., Slack
// "ok": false) and extracts the provider message ID.
func (w *WebhookChannel) handle2xx(resp *http.Response, body []byte, destination string) (*types.DeliveryResult, error) {
	platform := w.registry.Detect(destination, "")
	formatter := w.registry.Get(platform)

	if err := formatter.ValidateResponse(resp.StatusCode, body); err != nil {
		w.logger.Warn("webhook soft failure on 2xx",
			"destination", redactDestination(destination),
			"status", resp.StatusCode,
			"error", err.Error(),
		)
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusFailed,
			FailureReason: fmt.Sprintf("soft_failure: %v", err),
			Retryable:     true,
		}, nil
	}

	providerMsgID := w.extractProviderMessageID(resp, body, platform)

	w.logger.Info("webhook delivered successfully",
		"destination", redactDestination(destination),
		"status", resp.StatusCode,
		"provider_message_id", providerMsgID,
	)

	return &types.DeliveryResult{
		ProviderMessageID: providerMsgID,
		Status:            types.DeliveryStatusSent,
	}, nil
}

// handle4xx returns a permanent (non-retryable) failure for client errors.
func (w *WebhookChannel) handle4xx(resp *http.Response, body []byte, destination string) (*types.DeliveryResult, error) {
	reason := fmt.Sprintf("client_error_%d: %s", resp.StatusCode, truncateBody(body))

	w.logger.Warn("webhook client error",
		"destination", destination,
		"status", resp.StatusCode,
		"body", truncateBody(body),
	)

	return &types.DeliveryResult{
		Status:        types.DeliveryStatusFailed,
		FailureReason: reason,
	}, nil
}

// ShouldRetry inspects an error to determine if it is transient.
func (w *WebhookChannel) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return strings.HasPrefix(string(appErr.Code), "upstream_")
	}

	return true
}

// extractProviderMessageID prefers the message ID Discord returns for
// ?wait=true posts, then well-known headers, then a synthetic ID.
func (w *WebhookChannel) extractProviderMessageID(resp *http.Response, body []byte, platform Platform) string {
	switch platform {
	case PlatformDiscord:
		var msg struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(body, &msg) == nil && msg.ID != "" {
			return msg.ID
		}
	case PlatformSlack:
		if reqID := resp.Header.Get("X-Slack-Req-Id"); reqID != "" {
			return reqID
		}
	}

	if reqID := resp.Header.Get("X-Request-Id"); reqID != "" {
		return reqID
	}

	return w.generateSyntheticID(resp.StatusCode)
}

// generateSyntheticID creates a traceable reference when no upstream provider
// ID is available.
//
// Format: generic-{status}-{timestamp}-{uuid_short}
// Example: generic-200-1706745600-a1b2c3d4
func (w *WebhookChannel) generateSyntheticID(statusCode int) string {
	return fmt.Sprintf("generic-%d-%d-%s",
		statusCode,
		w.clock.Now().Unix(),
		uuid.New().String()[:8],
	)
}

// withWait asks Discord to return the created message instead of 204.
func withWait(destination string) string {
	if !strings.Contains(strings.ToLower(destination), "/api/webhooks/") {
		return destination
	}
	u, err := url.Parse(destination)
	if err != nil {
		return destination
	}
	q := u.Query()
	q.Set("wait", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

// redactDestination hides the token segment of a webhook URL for logging.
func redactDestination(destination string) string {
	u, err := url.Parse(destination)
	if err != nil || u.Host == "" {
		return "[invalid-url]"
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		path = path[:i+1] + "[redacted]"
	}
	return u.Scheme + "://" + u.Host + path
}
