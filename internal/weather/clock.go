package weather

import (
	"fmt"
	"math"
	"time"
)

// weekdays keeps the deployed bot's labelling: week index 0 is reported as
// Sunday and index k as the (k-1)th Monday-based name.
var weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// GameClock holds the in-game time fields derived from one real-world instant.
type GameClock struct {
	Instant    time.Time
	TotalHours float64
	HourOfDay  float64
	Weekday    string
	IsDaytime  bool
	// CycleOffset is the position in the weather cycle, in [0, CycleLength).
	CycleOffset float64

	// minuteOfDay is the floored in-game minute, in [0, 1440).
	minuteOfDay int
}

const (
	secondsPerGameDay  = 24 * GameSecondsPerHour
	secondsPerGameWeek = 7 * secondsPerGameDay
	secondsPerCycle    = CycleLength * GameSecondsPerHour
)

// FromInstant converts t into game clock fields. The instant is normalised to
// UTC and truncated to whole seconds. A zero time is rejected.
func FromInstant(t time.Time) (GameClock, error) {
	if t.IsZero() {
		return GameClock{}, fmt.Errorf("%w: zero instant", ErrInvalidInput)
	}
	t = t.UTC()
	return FromUnixSeconds(t.Unix())
}

// FromUnixSeconds is FromInstant for a raw count of seconds since the Unix epoch.
//
// Every field is reduced in whole seconds before converting to hours; at
// present-day magnitudes a float modulo drifts below minute boundaries.
func FromUnixSeconds(secs int64) (GameClock, error) {
	daySecs := floorMod(secs, secondsPerGameDay)
	hour := float64(daySecs) / GameSecondsPerHour

	return GameClock{
		Instant:     time.Unix(secs, 0).UTC(),
		TotalHours:  float64(secs) / GameSecondsPerHour,
		HourOfDay:   hour,
		Weekday:     weekdays[(floorMod(secs, secondsPerGameWeek)/secondsPerGameDay+6)%7],
		IsDaytime:   hour >= SunriseHour && hour < SunsetHour,
		CycleOffset: float64(floorMod(secs, secondsPerCycle)) / GameSecondsPerHour,
		minuteOfDay: int(daySecs * 60 / GameSecondsPerHour),
	}, nil
}

// Clock formats the hour of day as zero-padded HH:MM.
func (g GameClock) Clock() string {
	m := g.minuteOfDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatHour renders an hour-of-day as HH:MM, truncating to the whole minute.
func FormatHour(hours float64) string {
	minutes := int(math.Floor(hours * 60))
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func floorMod(x, m int64) int64 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

