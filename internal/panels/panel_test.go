package panels

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raceweather/internal/races"
	"raceweather/internal/weather"
)

func atOffset(o float64) time.Time {
	return time.Unix(int64(o*weather.GameSecondsPerHour), 0).UTC()
}

func TestWeather_Raining(t *testing.T) {
	now := atOffset(131.5)
	report, err := weather.NewForecaster(nil).Report(now)
	require.NoError(t, err)

	p := Weather(report)

	assert.Equal(t, KindWeather, p.Kind)
	assert.Equal(t, "It is raining at 11:30!", p.Title)
	assert.Equal(t, fmt.Sprintf("Rain will end in 11 minutes. <t:%d:R>", now.Add(11*time.Minute).Unix()), p.Description)
	assert.Equal(t, ColorOrange, p.Color)
	require.Len(t, p.Fields, 4)
	assert.Equal(t, Field{Name: LabelWeather, Value: "Raining 🌧️", Inline: true}, p.Fields[0])
	assert.Equal(t, "11 minutes", p.Fields[1].Value)
	assert.Equal(t, "It's going to be wet for 11m", p.Fields[2].Value)
	assert.Equal(t, report.Condition.DayThumbnail, p.Thumbnail)
	assert.Equal(t, now, p.Timestamp)
}

func TestWeather_Dry(t *testing.T) {
	now := atOffset(0)
	report, err := weather.NewForecaster(nil).Report(now)
	require.NoError(t, err)

	p := Weather(report)

	assert.Equal(t, "It is partly cloudy at 00:00!", p.Title)
	assert.True(t, strings.HasPrefix(p.Description, "Rain will begin in 3 hours and 30 minutes."))
	assert.Equal(t, "Next rain lasts 6m", p.Fields[2].Value)
	assert.Equal(t, report.Condition.NightThumbnail, p.Thumbnail)
}

func TestRain(t *testing.T) {
	now := atOffset(0)
	windows, err := weather.NewForecaster(nil).Upcoming(now, 2)
	require.NoError(t, err)

	p := Rain(windows, now, time.UTC)

	assert.Equal(t, fmt.Sprintf("🌧️ Next Rain Periods <t:%d:F>", now.Unix()), p.Title)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, "Rain Period 1", p.Fields[0].Name)
	assert.Equal(t, strings.Join([]string{
		"**Type:** Drizzling 🌦️",
		fmt.Sprintf("**Start:** 1970-01-01 03:30:00 (<t:%d:R>)", windows[0].Start.Unix()),
		"**End:** 1970-01-01 03:36:00",
		"**Duration:** 6m",
	}, "\n"), p.Fields[0].Value)
	assert.Equal(t, "Rain Period 2", p.Fields[1].Name)
}

func TestRain_Empty(t *testing.T) {
	p := Rain(nil, atOffset(0), nil)

	assert.Empty(t, p.Fields)
	assert.Equal(t, "No rain periods found in the upcoming future.", p.Description)
}

func TestRainPeriod_Location(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	w := weather.RainWindow{
		Start:           time.Date(2025, 5, 4, 16, 0, 0, 0, time.UTC),
		End:             time.Date(2025, 5, 4, 16, 10, 0, 0, time.UTC),
		DurationMinutes: 10,
	}

	assert.Contains(t, RainPeriod(w, loc), "**Start:** 2025-05-04 18:00:00")
	assert.Contains(t, RainPeriod(w, loc), "**End:** 2025-05-04 18:10:00")
}

func TestRace(t *testing.T) {
	rw, err := races.DefaultCalendar().Weather(weather.NewForecaster(nil), races.F1, 1)
	require.NoError(t, err)

	p := Race(rw)

	assert.Equal(t, KindRace, p.Kind)
	assert.Equal(t, fmt.Sprintf("F1 Race Weather for <t:%d:F>", rw.Start.Unix()), p.Title)
	assert.Equal(t, "Round 1", p.Fields[0].Value)
	assert.Equal(t, "Clear ☀️", p.Fields[1].Value)
	assert.Equal(t, "Sunday 4th May 18:00", p.Footer)
}

func TestRace_Sprint(t *testing.T) {
	cal := races.DefaultCalendar()
	rw, err := cal.Weather(weather.NewForecaster(nil), races.F2, 3)
	require.NoError(t, err)
	require.True(t, rw.Sprint)

	assert.Equal(t, "Round 3 (sprint)", Race(rw).Fields[0].Value)
}

func TestLapCount(t *testing.T) {
	rows, err := races.LapCountTable(90)
	require.NoError(t, err)

	p := LapCount(rows)

	require.Len(t, p.Fields, len(rows))
	assert.Equal(t, "90.8 seconds", p.Fields[0].Name)
	var selected []Field
	for _, f := range p.Fields {
		if strings.HasPrefix(f.Value, "**--") {
			selected = append(selected, f)
		}
	}
	require.Len(t, selected, 1)
	assert.Equal(t, Field{Name: "90.0 seconds", Value: "**--29--** laps"}, selected[0])
}

func TestRainAlert(t *testing.T) {
	now := atOffset(0)
	windows, err := weather.NewForecaster(nil).Upcoming(now, 1)
	require.NoError(t, err)
	start := windows[0].Start

	p := RainAlert(windows[0], start.Add(-10*time.Minute))

	assert.Equal(t, KindAlert, p.Kind)
	assert.Equal(t, "🌦️ Drizzling starts in 10 minutes", p.Title)
	assert.Contains(t, p.Content, fmt.Sprintf("<t:%d:R>", start.Unix()))
	assert.Equal(t, "6m", p.Fields[0].Value)
}

func TestHelpAndError(t *testing.T) {
	assert.NotEmpty(t, Help().Fields)

	p := Error("Invalid series", "Did you mean f1?")
	assert.Equal(t, ColorRed, p.Color)
	assert.Equal(t, KindError, p.Kind)
}
