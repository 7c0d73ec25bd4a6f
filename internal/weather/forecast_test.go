package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atOffset returns the instant whose cycle offset is o (first cycle after the epoch).
func atOffset(o float64) time.Time {
	return time.Unix(int64(o*GameSecondsPerHour), 0).UTC()
}

func TestForecaster_CurrentForecast_Raining(t *testing.T) {
	f := NewForecaster(nil)
	now := atOffset(131.5)

	fc, err := f.CurrentForecast(now)
	require.NoError(t, err)

	assert.True(t, fc.Precipitating)
	assert.Equal(t, int64(660), fc.ETASeconds)
	assert.Equal(t, 11*time.Minute, fc.ETA)
	assert.Equal(t, "11 minutes", fc.ETAText)
	assert.Equal(t, now.Add(11*time.Minute), fc.ChangesAt)
}

func TestForecaster_CurrentForecast_Dry(t *testing.T) {
	f := NewForecaster(nil)

	fc, err := f.CurrentForecast(atOffset(0))
	require.NoError(t, err)

	assert.False(t, fc.Precipitating)
	assert.Equal(t, int64(105*GameSecondsPerHour), fc.ETASeconds)
	assert.Equal(t, "3 hours and 30 minutes", fc.ETAText)
}

func TestForecaster_CurrentForecast_InvalidInstant(t *testing.T) {
	_, err := NewForecaster(nil).CurrentForecast(time.Time{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestForecaster_Upcoming(t *testing.T) {
	f := NewForecaster(nil)
	now := atOffset(0)

	windows, err := f.Upcoming(now, 3)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, now.Add(105*2*time.Minute), windows[0].Start)
	assert.Equal(t, now.Add(108*2*time.Minute), windows[0].End)
	assert.Equal(t, 6, windows[0].DurationMinutes)
	assert.Equal(t, Drizzling, windows[0].Condition.ID)

	assert.Equal(t, Raining, windows[1].Condition.ID)
	assert.Equal(t, Drizzling, windows[2].Condition.ID)
	assert.Equal(t, windows[1].End, windows[2].Start)
}

func TestForecaster_Upcoming_AcrossCycleBoundary(t *testing.T) {
	f := NewForecaster(nil)
	now := atOffset(377.5)

	windows, err := f.Upcoming(now, 2)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, now.Add(time.Duration((384+105-377.5)*GameSecondsPerHour)*time.Second), windows[0].Start)
	assert.True(t, windows[1].Start.After(windows[0].Start))
	for _, w := range windows {
		assert.True(t, w.Start.After(now))
		assert.True(t, w.End.After(w.Start))
		assert.Equal(t, int(w.Duration()/time.Minute), w.DurationMinutes)
	}
}

func TestForecaster_Upcoming_LongWindowMinutes(t *testing.T) {
	// 369..376 is seven game hours: 14 real minutes.
	windows, err := NewForecaster(nil).Upcoming(atOffset(360), 1)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 14, windows[0].DurationMinutes)
}

func TestForecaster_Report_Raining(t *testing.T) {
	r, err := NewForecaster(nil).Report(atOffset(131.5))
	require.NoError(t, err)

	assert.Equal(t, Raining, r.Condition.ID)
	assert.Equal(t, 11*time.Minute, r.RainLength)
	assert.Equal(t, "11m", r.RainLengthText)
	require.NotNil(t, r.NextWindow)
	assert.Equal(t, Drizzling, r.NextWindow.Condition.ID)
}

func TestForecaster_Report_Dry(t *testing.T) {
	r, err := NewForecaster(nil).Report(atOffset(0))
	require.NoError(t, err)

	assert.Equal(t, PartlyCloudy, r.Condition.ID)
	assert.False(t, r.Forecast.Precipitating)
	assert.Equal(t, 6*time.Minute, r.RainLength)
	assert.Equal(t, "6m", r.RainLengthText)
	assert.Equal(t, "00:00", r.Clock.Clock())
}

func TestForecaster_CustomSchedule(t *testing.T) {
	s, err := NewSchedule([]Breakpoint{{0, Clear}, {10, Raining}, {40, Clear}})
	require.NoError(t, err)
	f := NewForecaster(s)

	fc, err := f.CurrentForecast(atOffset(5))
	require.NoError(t, err)
	assert.Equal(t, "10 minutes", fc.ETAText)

	windows, err := f.Upcoming(atOffset(5), 2)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 60, windows[0].DurationMinutes)
	assert.Equal(t, atOffset(5).Add((384+5)*2*time.Minute), windows[1].Start)
}
