package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"raceweather/internal/panels"
)

// Discord embed limits.
const (
	discordMaxFields     = 25
	discordMaxFieldValue = 1024
	discordMaxTitle      = 256
)

// DiscordFormatter formats panels as Discord webhook JSON with a single embed.
type DiscordFormatter struct{}

// Platform returns the platform identifier.
func (f *DiscordFormatter) Platform() Platform {
	return PlatformDiscord
}

// Format transforms a Panel into Discord webhook JSON.
func (f *DiscordFormatter) Format(_ context.Context, p *panels.Panel, opts FormatOptions) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("discord formatter: panel is nil")
	}
	return json.Marshal(DiscordPayloadFor(p, opts))
}

// DiscordPayloadFor builds the payload struct without serialising it.
func DiscordPayloadFor(p *panels.Panel, opts FormatOptions) DiscordPayload {
	embed := DiscordEmbed{
		Title:       truncate(p.Title, discordMaxTitle),
		Description: p.Description,
		Color:       p.Color,
	}

	for i, field := range p.Fields {
		if i == discordMaxFields {
			break
		}
		embed.Fields = append(embed.Fields, DiscordField{
			Name:   field.Name,
			Value:  truncate(field.Value, discordMaxFieldValue),
			Inline: field.Inline,
		})
	}
	if p.Thumbnail != "" {
		embed.Thumbnail = &DiscordThumbnail{URL: p.Thumbnail}
	}
	if p.Footer != "" {
		embed.Footer = &DiscordFooter{Text: p.Footer}
	}
	if !p.Timestamp.IsZero() {
		embed.Timestamp = p.Timestamp.UTC().Format(time.RFC3339)
	}

	return DiscordPayload{
		Username:  opts.Username,
		AvatarURL: opts.AvatarURL,
		Content:   p.Content,
		Embeds:    []DiscordEmbed{embed},
	}
}

// ValidateResponse checks the Discord webhook response. Discord returns 204
// No Content on success for webhook messages.
func (f *DiscordFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err == nil {
		if msg, ok := resp["message"].(string); ok {
			return fmt.Errorf("discord: API error: %s", msg)
		}
	}

	return fmt.Errorf("discord: unexpected status %d: %s", statusCode, truncateBody(body))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// truncateBody limits a response body for inclusion in error messages.
func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
