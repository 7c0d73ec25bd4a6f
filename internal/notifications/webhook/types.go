package webhook

import (
	"context"

	"raceweather/internal/panels"
)

// Platform identifies a webhook destination platform.
type Platform string

const (
	// PlatformGeneric is the default platform for unknown webhook URLs.
	PlatformGeneric Platform = "generic"

	// PlatformSlack represents Slack incoming webhooks.
	PlatformSlack Platform = "slack"

	// PlatformDiscord represents Discord webhook endpoints.
	PlatformDiscord Platform = "discord"
)

// FormatOptions carries per-deployment presentation settings.
type FormatOptions struct {
	Username  string
	AvatarURL string
}

// PlatformFormatter transforms a Panel into platform-specific JSON.
type PlatformFormatter interface {
	// Format renders the panel into the platform's JSON payload.
	Format(ctx context.Context, p *panels.Panel, opts FormatOptions) ([]byte, error)

	// Platform returns the enum identifier for metrics.
	Platform() Platform

	// ValidateResponse interprets the HTTP response body to catch "soft failures"
	// (e.g., Slack returning HTTP 200 with "ok": false).
	ValidateResponse(statusCode int, body []byte) error
}

// --- Slack Payload Types (Block Kit) ---

// SlackPayload is the top-level structure for Slack Block Kit messages.
type SlackPayload struct {
	Text   string       `json:"text"`   // Fallback text for push notifications
	Blocks []SlackBlock `json:"blocks"` // Rich layout
}

// SlackBlock represents a single block in a Slack Block Kit message.
type SlackBlock struct {
	Type      string        `json:"type"` // "section", "header", "context"
	Text      *SlackText    `json:"text,omitempty"`
	Fields    []*SlackText  `json:"fields,omitempty"`
	Elements  []*SlackText  `json:"elements,omitempty"`
	Accessory *SlackElement `json:"accessory,omitempty"`
}

// SlackText is a text composition object for Slack Block Kit.
type SlackText struct {
	Type string `json:"type"` // "plain_text", "mrkdwn"
	Text string `json:"text"`
}

// SlackElement is an image accessory.
type SlackElement struct {
	Type     string `json:"type"` // "image"
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// --- Discord Payload Types (Embeds) ---

// DiscordPayload is the top-level structure for Discord webhook messages.
type DiscordPayload struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents an embed in a Discord webhook message.
type DiscordEmbed struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Color       int               `json:"color"` // Decimal color code
	Fields      []DiscordField    `json:"fields,omitempty"`
	Thumbnail   *DiscordThumbnail `json:"thumbnail,omitempty"`
	Footer      *DiscordFooter    `json:"footer,omitempty"`
	Timestamp   string            `json:"timestamp,omitempty"`
}

// DiscordField is a field within a Discord embed.
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordThumbnail is the small image in the embed corner.
type DiscordThumbnail struct {
	URL string `json:"url"`
}

// DiscordFooter is the footer of a Discord embed.
type DiscordFooter struct {
	Text string `json:"text"`
}
