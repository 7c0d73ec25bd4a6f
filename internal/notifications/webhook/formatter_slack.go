package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"raceweather/internal/panels"
)

// slackMaxFields is the Block Kit limit on fields in one section.
const slackMaxFields = 10

// discordTimestampPattern matches <t:unix> and <t:unix:style> markers, which
// Slack renders with its own <!date^unix^{token}|fallback> syntax.
var discordTimestampPattern = regexp.MustCompile(`<t:(\d+)(?::([tTdDfFR]))?>`)

// SlackFormatter formats panels as Slack Block Kit JSON.
type SlackFormatter struct{}

// Platform returns the platform identifier.
func (f *SlackFormatter) Platform() Platform {
	return PlatformSlack
}

// Format transforms a Panel into Slack Block Kit JSON.
func (f *SlackFormatter) Format(_ context.Context, p *panels.Panel, _ FormatOptions) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("slack formatter: panel is nil")
	}

	title := slackText(p.Title)
	fallback := title
	if p.Content != "" {
		fallback = slackText(p.Content)
	}

	payload := SlackPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{Type: "header", Text: &SlackText{Type: "plain_text", Text: title}},
		},
	}

	if p.Description != "" {
		block := SlackBlock{Type: "section", Text: &SlackText{Type: "mrkdwn", Text: slackText(p.Description)}}
		if p.Thumbnail != "" {
			block.Accessory = &SlackElement{Type: "image", ImageURL: p.Thumbnail, AltText: title}
		}
		payload.Blocks = append(payload.Blocks, block)
	}

	var fields []*SlackText
	for _, field := range p.Fields {
		fields = append(fields, &SlackText{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*%s*\n%s", field.Name, slackText(field.Value)),
		})
	}
	for len(fields) > 0 {
		n := min(len(fields), slackMaxFields)
		payload.Blocks = append(payload.Blocks, SlackBlock{Type: "section", Fields: fields[:n]})
		fields = fields[n:]
	}

	if p.Footer != "" {
		payload.Blocks = append(payload.Blocks, SlackBlock{
			Type:     "context",
			Elements: []*SlackText{{Type: "mrkdwn", Text: slackText(p.Footer)}},
		})
	}

	return json.Marshal(payload)
}

// slackText converts Discord markdown into Slack mrkdwn: bold markers and
// timestamp tags.
func slackText(s string) string {
	s = strings.ReplaceAll(s, "**", "*")
	return discordTimestampPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := discordTimestampPattern.FindStringSubmatch(m)
		token := "{date_short_pretty} {time}"
		switch parts[2] {
		case "t":
			token = "{time}"
		case "R":
			token = "{ago}"
		case "F":
			token = "{date_long_pretty} {time}"
		}
		return fmt.Sprintf("<!date^%s^%s|%s>", parts[1], token, parts[1])
	})
}

// ValidateResponse checks for Slack's "soft failure" pattern where the API
// returns HTTP 200 but the body indicates an error (e.g., "ok": false or
// a plain text error message).
func (f *SlackFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", statusCode)
	}

	bodyStr := strings.TrimSpace(string(body))

	// Slack incoming webhooks return "ok" as plain text on success.
	if bodyStr == "ok" {
		return nil
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err == nil {
		if ok, exists := resp["ok"]; exists {
			if okBool, isBool := ok.(bool); isBool && !okBool {
				errMsg := "unknown error"
				if e, isStr := resp["error"].(string); isStr {
					errMsg = e
				}
				return fmt.Errorf("slack: API error: %s", errMsg)
			}
		}
	}

	knownErrors := []string{
		"no_text",
		"channel_not_found",
		"channel_is_archived",
		"invalid_payload",
		"too_many_attachments",
	}
	for _, known := range knownErrors {
		if bodyStr == known {
			return fmt.Errorf("slack: API error: %s", bodyStr)
		}
	}

	return nil
}
