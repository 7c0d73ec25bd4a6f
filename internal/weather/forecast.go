package weather

import (
	"fmt"
	"math"
	"time"
)

// PrecipitationForecast is the "is it wet, and until when" answer for one instant.
type PrecipitationForecast struct {
	Precipitating bool          `json:"precipitating"`
	ETA           time.Duration `json:"-"`
	ETASeconds    int64         `json:"eta_seconds"`
	ETAText       string        `json:"eta_text"`
	// ChangesAt is the real-world instant of the next precipitation-class change.
	ChangesAt time.Time `json:"changes_at"`
}

// RainWindow is an upcoming precipitation period in real-world time.
type RainWindow struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Condition       Condition `json:"condition"`
}

// Duration returns End - Start.
func (w RainWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Report bundles everything the display layer needs for one instant.
type Report struct {
	Clock      GameClock             `json:"-"`
	Condition  Condition             `json:"condition"`
	Forecast   PrecipitationForecast `json:"forecast"`
	RainLength time.Duration         `json:"-"`
	// RainLengthText is the remaining rain when wet, or the next window's length when dry.
	RainLengthText string      `json:"rain_length"`
	NextWindow     *RainWindow `json:"next_window,omitempty"`
}

// Forecaster translates schedule answers into real-world time.
type Forecaster struct {
	schedule *Schedule
}

// NewForecaster returns a forecaster over s, or over DefaultSchedule when s is nil.
func NewForecaster(s *Schedule) *Forecaster {
	if s == nil {
		s = DefaultSchedule()
	}
	return &Forecaster{schedule: s}
}

// Schedule returns the underlying schedule.
func (f *Forecaster) Schedule() *Schedule {
	return f.schedule
}

// CurrentForecast reports whether it is precipitating at t and how long until that changes.
func (f *Forecaster) CurrentForecast(t time.Time) (PrecipitationForecast, error) {
	clock, err := FromInstant(t)
	if err != nil {
		return PrecipitationForecast{}, err
	}
	_, fc, err := f.current(clock)
	return fc, err
}

func (f *Forecaster) current(clock GameClock) (Condition, PrecipitationForecast, error) {
	cond, err := f.schedule.ConditionAt(clock.CycleOffset)
	if err != nil {
		return Condition{}, PrecipitationForecast{}, err
	}
	wet := cond.IsPrecipitating()
	delta, _, err := f.schedule.NextTransition(clock.CycleOffset, wet)
	if err != nil {
		return Condition{}, PrecipitationForecast{}, err
	}

	secs := int64(math.Round(delta * GameSecondsPerHour))
	eta := time.Duration(secs) * time.Second
	return cond, PrecipitationForecast{
		Precipitating: wet,
		ETA:           eta,
		ETASeconds:    secs,
		ETAText:       VerboseInterval(secs),
		ChangesAt:     clock.Instant.Add(eta),
	}, nil
}

// Upcoming returns the next count precipitation windows after t.
func (f *Forecaster) Upcoming(t time.Time, count int) ([]RainWindow, error) {
	clock, err := FromInstant(t)
	if err != nil {
		return nil, err
	}
	return f.upcoming(clock, count)
}

func (f *Forecaster) upcoming(clock GameClock, count int) ([]RainWindow, error) {
	windows, err := f.schedule.UpcomingPrecipitationWindows(clock.CycleOffset, count)
	if err != nil {
		return nil, err
	}
	out := make([]RainWindow, 0, len(windows))
	for _, w := range windows {
		start := clock.Instant.Add(offsetToDuration(w.StartOffset - clock.CycleOffset))
		end := clock.Instant.Add(offsetToDuration(w.EndOffset - clock.CycleOffset))
		out = append(out, RainWindow{
			Start:           start,
			End:             end,
			DurationMinutes: int((w.EndOffset - w.StartOffset) * GameSecondsPerHour / 60),
			Condition:       w.Condition,
		})
	}
	return out, nil
}

// Report computes the clock, condition, forecast and rain length at t.
func (f *Forecaster) Report(t time.Time) (Report, error) {
	clock, err := FromInstant(t)
	if err != nil {
		return Report{}, err
	}
	cond, fc, err := f.current(clock)
	if err != nil {
		return Report{}, fmt.Errorf("forecast at %s: %w", t.Format(time.RFC3339), err)
	}

	r := Report{Clock: clock, Condition: cond, Forecast: fc}
	next, err := f.upcoming(clock, 1)
	if err != nil {
		return Report{}, err
	}
	if len(next) > 0 {
		r.NextWindow = &next[0]
	}

	switch {
	case fc.Precipitating:
		r.RainLength = fc.ETA
	case r.NextWindow != nil:
		r.RainLength = time.Duration(r.NextWindow.DurationMinutes) * time.Minute
	}
	r.RainLengthText = FormatRainLength(r.RainLength)
	return r, nil
}

func offsetToDuration(hours float64) time.Duration {
	return time.Duration(math.Round(hours*GameSecondsPerHour)) * time.Second
}
