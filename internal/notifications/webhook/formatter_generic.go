package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"raceweather/internal/panels"
)

// GenericFormatter outputs the panel itself as a stable JSON envelope. It is
// the default for webhook URLs that do not match a known platform.
type GenericFormatter struct{}

// Platform returns the platform identifier.
func (f *GenericFormatter) Platform() Platform {
	return PlatformGeneric
}

// GenericPayload is the envelope posted to generic endpoints.
type GenericPayload struct {
	Source string        `json:"source"`
	Kind   panels.Kind   `json:"kind"`
	Panel  *panels.Panel `json:"panel"`
}

// Format wraps the panel in a GenericPayload.
func (f *GenericFormatter) Format(_ context.Context, p *panels.Panel, opts FormatOptions) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("generic formatter: panel is nil")
	}

	source := opts.Username
	if source == "" {
		source = "raceweather"
	}
	return json.Marshal(GenericPayload{Source: source, Kind: p.Kind, Panel: p})
}

// ValidateResponse for generic webhooks simply checks the HTTP status code.
func (f *GenericFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return fmt.Errorf("generic webhook: unexpected status %d: %s", statusCode, truncateBody(body))
}
