package types

import "time"

// ChannelType identifies a notification transport.
type ChannelType string

const (
	ChannelWebhook ChannelType = "webhook"
)

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent     DeliveryStatus = "sent"
	DeliveryStatusFailed   DeliveryStatus = "failed"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
)

// DeliveryResult describes what happened when a payload was posted.
type DeliveryResult struct {
	ProviderMessageID string
	Status            DeliveryStatus
	FailureReason     string
	Retryable         bool
	// Terminal means the destination is gone and should be removed from config.
	Terminal   bool
	RetryAfter *time.Duration
}
