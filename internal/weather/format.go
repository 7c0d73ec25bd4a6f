package weather

import (
	"fmt"
	"strings"
	"time"
)

// VerboseInterval renders a count of seconds as "H hour(s) and M minute(s)".
// Anything under a minute is "Less than 1 minute". Zero clauses are omitted and
// only values above one are pluralised.
func VerboseInterval(seconds int64) string {
	if seconds < 60 {
		return "Less than 1 minute"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	parts := make([]string, 0, 2)
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " and ")
}

func plural(n int64, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// FormatRainLength renders a duration as "1h 5m" or "45m", truncated to minutes.
func FormatRainLength(d time.Duration) string {
	total := int64(d / time.Minute)
	if total < 0 {
		total = 0
	}
	h, m := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// Discord timestamp styles.
const (
	TimestampFull     = "F"
	TimestampRelative = "R"
	TimestampShort    = "t"
)

// DiscordTimestamp renders t as a Discord dynamic timestamp tag such as <t:1700000000:F>.
func DiscordTimestamp(t time.Time, style string) string {
	if style == "" {
		return fmt.Sprintf("<t:%d>", t.Unix())
	}
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

// OrdinalSuffix returns the English suffix for a day of month: st, nd, rd or th.
func OrdinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// FormatDate renders t as e.g. "Sunday 4th May 18:00" in its own location.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s %s %s", t.Weekday(), t.Day(), OrdinalSuffix(t.Day()), t.Month(), t.Format("15:04"))
}
