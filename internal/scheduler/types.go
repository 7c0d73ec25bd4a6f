// Package scheduler implements the scheduled rain alert job.
//
// The AlertPayload is the JSON structure sent by the EventBridge rule to the
// rain-alerter Lambda. Locally the same job runs from a ticker.
package scheduler

import (
	"context"
	"time"

	"raceweather/internal/panels"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

// AlertPayload is the EventBridge input. ReferenceTime lets a manual
// invocation replay a specific instant; if nil, the clock is used.
//
//	{
//	  "reference_time": "2025-05-04T17:50:00Z"  // optional
//	}
type AlertPayload struct {
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
}

// PanelSender posts a panel to one destination.
type PanelSender interface {
	Send(ctx context.Context, p *panels.Panel, destination string) (*types.DeliveryResult, error)
}

// AlertMetrics records alert job outcomes.
type AlertMetrics interface {
	RecordEvaluated(ctx context.Context)
	RecordSent(ctx context.Context, channel types.ChannelType)
	RecordDeliveryFailed(ctx context.Context, channel types.ChannelType)
}

// DeliveryOutcome is the result for one destination.
type DeliveryOutcome struct {
	Destination string                `json:"destination"`
	Result      *types.DeliveryResult `json:"result,omitempty"`
	Err         string                `json:"error,omitempty"`
}

// AlertRun summarises one evaluation.
type AlertRun struct {
	EvaluatedAt time.Time           `json:"evaluated_at"`
	Window      *weather.RainWindow `json:"window,omitempty"`
	Alerted     bool                `json:"alerted"`
	Sent        int                 `json:"sent"`
	Failed      int                 `json:"failed"`
	Outcomes    []DeliveryOutcome   `json:"outcomes,omitempty"`
}
