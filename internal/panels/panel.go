// Package panels turns weather and race data into platform-neutral display
// panels. Webhook formatters render a Panel into Discord embeds, Slack blocks
// or a plain JSON document.
package panels

import (
	"fmt"
	"strings"
	"time"

	"raceweather/internal/races"
	"raceweather/internal/weather"
)

// Panel colours.
const (
	ColorOrange = 0xF03C00
	ColorBlue   = 0x3498DB
	ColorRed    = 0xE74C3C
	ColorGreen  = 0x2ECC71
)

// Display labels shared by several panels.
const (
	LabelWeather    = "Weather"
	LabelRainETA    = "Rain ETA"
	LabelRainLength = "Rain Length"
)

// Kind identifies which panel was built, for metrics and logs.
type Kind string

const (
	KindWeather  Kind = "weather"
	KindRain     Kind = "rain"
	KindRace     Kind = "race"
	KindLapCount Kind = "lap_count"
	KindAlert    Kind = "rain_alert"
	KindHelp     Kind = "help"
	KindError    Kind = "error"
)

// Field is a titled value inside a panel.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Panel is a renderable message card.
type Panel struct {
	Kind        Kind      `json:"kind"`
	Content     string    `json:"content,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Color       int       `json:"color"`
	Fields      []Field   `json:"fields,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Footer      string    `json:"footer,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Weather builds the current-weather panel from a report.
func Weather(r weather.Report) Panel {
	verb := "begin"
	lengthText := fmt.Sprintf("Next rain lasts %s", r.RainLengthText)
	if r.Forecast.Precipitating {
		verb = "end"
		lengthText = fmt.Sprintf("It's going to be wet for %s", r.RainLengthText)
	}

	return Panel{
		Kind:  KindWeather,
		Title: fmt.Sprintf("It is %s at %s!", strings.ToLower(r.Condition.Name), r.Clock.Clock()),
		Description: fmt.Sprintf("Rain will %s in %s. %s",
			verb, r.Forecast.ETAText, weather.DiscordTimestamp(r.Forecast.ChangesAt, weather.TimestampRelative)),
		Color: ColorOrange,
		Fields: []Field{
			{Name: LabelWeather, Value: fmt.Sprintf("%s %s", r.Condition.Name, r.Condition.Glyph), Inline: true},
			{Name: LabelRainETA, Value: r.Forecast.ETAText, Inline: true},
			{Name: LabelRainLength, Value: lengthText, Inline: true},
			{Name: "In-game", Value: fmt.Sprintf("%s %s", r.Clock.Weekday, r.Clock.Clock()), Inline: true},
		},
		Thumbnail: r.Condition.Thumbnail(r.Clock.IsDaytime),
		Footer:    fmt.Sprintf("Current Weather at %s", weather.DiscordTimestamp(r.Clock.Instant, weather.TimestampFull)),
		Timestamp: r.Clock.Instant,
	}
}

// Rain builds the upcoming rain periods panel.
func Rain(windows []weather.RainWindow, now time.Time, loc *time.Location) Panel {
	if len(windows) == 0 {
		return Panel{
			Kind:        KindRain,
			Title:       "🌦️ Rain Forecast",
			Description: "No rain periods found in the upcoming future.",
			Color:       ColorBlue,
			Timestamp:   now,
		}
	}

	p := Panel{
		Kind:      KindRain,
		Title:     fmt.Sprintf("🌧️ Next Rain Periods %s", weather.DiscordTimestamp(now, weather.TimestampFull)),
		Color:     ColorBlue,
		Timestamp: now,
	}
	for i, w := range windows {
		p.Fields = append(p.Fields, Field{
			Name:  fmt.Sprintf("Rain Period %d", i+1),
			Value: RainPeriod(w, loc),
		})
	}
	return p
}

// RainPeriod renders one window as the multi-line block used in rain panels.
func RainPeriod(w weather.RainWindow, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return strings.Join([]string{
		fmt.Sprintf("**Type:** %s %s", w.Condition.Name, w.Condition.Glyph),
		fmt.Sprintf("**Start:** %s (%s)", w.Start.In(loc).Format("2006-01-02 15:04:05"), weather.DiscordTimestamp(w.Start, weather.TimestampRelative)),
		fmt.Sprintf("**End:** %s", w.End.In(loc).Format("2006-01-02 15:04:05")),
		fmt.Sprintf("**Duration:** %dm", w.DurationMinutes),
	}, "\n")
}

// Race builds the race weather panel.
func Race(rw races.RaceWeather) Panel {
	title := fmt.Sprintf("%s Race Weather for %s", strings.ToUpper(string(rw.Series)), weather.DiscordTimestamp(rw.Start, weather.TimestampFull))
	round := fmt.Sprintf("Round %d", rw.Round)
	if rw.Sprint {
		round += " (sprint)"
	}

	r := rw.Report
	return Panel{
		Kind:  KindRace,
		Title: title,
		Color: ColorOrange,
		Fields: []Field{
			{Name: "Round", Value: round, Inline: true},
			{Name: LabelWeather, Value: fmt.Sprintf("%s %s", r.Condition.Name, r.Condition.Glyph), Inline: true},
			{Name: "In-game", Value: fmt.Sprintf("%s %s", r.Clock.Weekday, r.Clock.Clock()), Inline: true},
			{Name: LabelRainETA, Value: r.Forecast.ETAText, Inline: true},
		},
		Thumbnail: r.Condition.Thumbnail(r.Clock.IsDaytime),
		Footer:    weather.FormatDate(rw.Start),
		Timestamp: rw.Start,
	}
}

// LapCount builds the lap count estimator panel. The selected row is bold.
func LapCount(rows []races.LapEstimate) Panel {
	p := Panel{
		Kind:  KindLapCount,
		Title: "🏁 Lap Count Estimator",
		Color: ColorBlue,
	}
	for _, row := range rows {
		value := fmt.Sprintf("%d laps", row.Laps)
		if row.Selected {
			value = fmt.Sprintf("**--%d--** laps", row.Laps)
		}
		p.Fields = append(p.Fields, Field{Name: fmt.Sprintf("%.1f seconds", row.LapSeconds), Value: value})
	}
	return p
}

// RainAlert announces a window that is about to start.
func RainAlert(w weather.RainWindow, now time.Time) Panel {
	return Panel{
		Kind:    KindAlert,
		Content: fmt.Sprintf("%s %s incoming %s", w.Condition.Glyph, w.Condition.Name, weather.DiscordTimestamp(w.Start, weather.TimestampRelative)),
		Title:   fmt.Sprintf("%s %s starts in %s", w.Condition.Glyph, w.Condition.Name, weather.VerboseInterval(int64(w.Start.Sub(now).Seconds()))),
		Description: fmt.Sprintf("Expect %s from %s to %s.",
			strings.ToLower(w.Condition.Name),
			weather.DiscordTimestamp(w.Start, weather.TimestampShort),
			weather.DiscordTimestamp(w.End, weather.TimestampShort)),
		Color:     ColorBlue,
		Fields:    []Field{{Name: "Duration", Value: fmt.Sprintf("%dm", w.DurationMinutes), Inline: true}},
		Thumbnail: w.Condition.DayThumbnail,
		Timestamp: now,
	}
}

// Error builds the red panel shown for rejected commands.
func Error(title, description string) Panel {
	return Panel{Kind: KindError, Title: title, Description: description, Color: ColorRed}
}

// Help lists the available commands.
func Help() Panel {
	return Panel{
		Kind:  KindHelp,
		Title: "Race Weather commands",
		Color: ColorGreen,
		Fields: []Field{
			{Name: "GET /v1/weather", Value: "Current in-game weather, rain ETA and rain length. Optional `at` (RFC3339) and `tz`."},
			{Name: "GET /v1/weather/rain", Value: "Next rain periods. Optional `count` (1-20, default 4)."},
			{Name: "GET /v1/weather/panel", Value: "Current weather as a Discord webhook payload."},
			{Name: "GET /v1/races/{series}", Value: "Weather at the start of a round. `series` is f1, f2 or f3; optional `round` like r3."},
			{Name: "GET /v1/races/lapcount", Value: "Lap count estimator. Required `lap_time` in seconds."},
		},
	}
}
