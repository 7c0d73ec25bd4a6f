package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"raceweather/internal/panels"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, p *panels.Panel, destination string) (*types.DeliveryResult, error) {
	args := m.Called(ctx, p, destination)
	res, _ := args.Get(0).(*types.DeliveryResult)
	return res, args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordEvaluated(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockMetrics) RecordSent(ctx context.Context, channel types.ChannelType) {
	m.Called(ctx, channel)
}

func (m *mockMetrics) RecordDeliveryFailed(ctx context.Context, channel types.ChannelType) {
	m.Called(ctx, channel)
}

const (
	testLead     = 10 * time.Minute
	testInterval = time.Minute
)

// firstWindowStart is the first drizzle after the epoch: offset 105.
var firstWindowStart = time.Unix(105*weather.GameSecondsPerHour, 0).UTC()

func newAlerter(t *testing.T, sender PanelSender, metrics AlertMetrics, dests ...string) *RainAlerter {
	t.Helper()
	a, err := NewRainAlerter(weather.NewForecaster(nil), sender, dests, testLead, testInterval, metrics, nil)
	require.NoError(t, err)
	return a
}

func TestShouldAlert(t *testing.T) {
	start := firstWindowStart

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly lead before", start.Add(-testLead), true},
		{"inside last interval", start.Add(-testLead + 30*time.Second), true},
		{"one interval later", start.Add(-testLead + testInterval), false},
		{"too early", start.Add(-testLead - time.Second), false},
		{"at start", start, false},
		{"after start", start.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAlert(start, tt.now, testLead, testInterval))
		})
	}
}

func TestShouldAlert_ExactlyOncePerWindow(t *testing.T) {
	start := firstWindowStart
	hits := 0
	// Runs every interval, with an arbitrary phase.
	for now := start.Add(-time.Hour).Add(17 * time.Second); now.Before(start.Add(time.Hour)); now = now.Add(testInterval) {
		if ShouldAlert(start, now, testLead, testInterval) {
			hits++
		}
	}
	assert.Equal(t, 1, hits)
}

func TestShouldAlert_LateDeliveriesAlertOnce(t *testing.T) {
	start := time.Date(2025, 5, 4, 18, 10, 10, 0, time.UTC)

	first := ShouldAlert(start, time.Date(2025, 5, 4, 18, 0, 20, 0, time.UTC), testLead, testInterval)
	second := ShouldAlert(start, time.Date(2025, 5, 4, 18, 1, 2, 0, time.UTC), testLead, testInterval)

	assert.False(t, first, "18:00 tick sees the window beyond its horizon")
	assert.True(t, second, "18:01 tick owns the window")
}

func TestShouldAlert_JitteredTicksAlertOnce(t *testing.T) {
	delays := []time.Duration{0, 59 * time.Second, 2 * time.Second, 40 * time.Second, 31 * time.Second, 500 * time.Millisecond}

	for _, offset := range []time.Duration{0, 10 * time.Second, 30 * time.Second, 59 * time.Second} {
		start := firstWindowStart.Add(offset)
		hits := 0
		tick := start.Add(-time.Hour).Truncate(testInterval)
		for i := 0; tick.Before(start.Add(time.Hour)); i++ {
			if ShouldAlert(start, tick.Add(delays[i%len(delays)]), testLead, testInterval) {
				hits++
			}
			tick = tick.Add(testInterval)
		}
		assert.Equal(t, 1, hits, "window offset %s", offset)
	}
}

func TestRun_LateDeliveryOfDueTick(t *testing.T) {
	due := firstWindowStart.Add(-testLead)

	run, err := newAlerter(t, nil, nil).Run(context.Background(), due.Add(59*time.Second))
	require.NoError(t, err)
	assert.True(t, run.Alerted)

	run, err = newAlerter(t, nil, nil).Run(context.Background(), due.Add(testInterval+time.Second))
	require.NoError(t, err)
	assert.False(t, run.Alerted)
}

func TestNewRainAlerter_Validation(t *testing.T) {
	f := weather.NewForecaster(nil)

	_, err := NewRainAlerter(nil, nil, nil, testLead, testInterval, nil, nil)
	assert.Error(t, err)

	_, err = NewRainAlerter(f, nil, []string{"https://discord.com/api/webhooks/1/a"}, testLead, testInterval, nil, nil)
	assert.Error(t, err)

	_, err = NewRainAlerter(f, nil, nil, time.Minute, 2*time.Minute, nil, nil)
	assert.Error(t, err)

	_, err = NewRainAlerter(f, nil, nil, testLead, testInterval, nil, nil)
	assert.NoError(t, err)
}

func TestRun_AlertsAllDestinations(t *testing.T) {
	dests := []string{
		"https://discord.com/api/webhooks/1/aaa",
		"https://discord.com/api/webhooks/2/bbb",
	}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(p *panels.Panel) bool {
		return p.Kind == panels.KindAlert && p.Title == "🌦️ Drizzling starts in 10 minutes"
	}), mock.Anything).Return(&types.DeliveryResult{Status: types.DeliveryStatusSent}, nil).Twice()

	metrics := &mockMetrics{}
	metrics.On("RecordEvaluated", mock.Anything).Once()
	metrics.On("RecordSent", mock.Anything, types.ChannelWebhook).Twice()

	run, err := newAlerter(t, sender, metrics, dests...).Run(context.Background(), firstWindowStart.Add(-testLead))
	require.NoError(t, err)

	assert.True(t, run.Alerted)
	require.NotNil(t, run.Window)
	assert.Equal(t, firstWindowStart, run.Window.Start)
	assert.Equal(t, 2, run.Sent)
	assert.Equal(t, 0, run.Failed)
	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, "discord.com", run.Outcomes[0].Destination)

	sender.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestRun_FailureIsolation(t *testing.T) {
	ok := "https://discord.com/api/webhooks/1/ok"
	gone := "https://discord.com/api/webhooks/2/gone"
	broken := "https://discord.com/api/webhooks/3/broken"

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything, ok).Return(&types.DeliveryResult{Status: types.DeliveryStatusSent}, nil)
	sender.On("Send", mock.Anything, mock.Anything, gone).Return(&types.DeliveryResult{
		Status: types.DeliveryStatusFailed, FailureReason: "endpoint_gone_404", Terminal: true,
	}, nil)
	sender.On("Send", mock.Anything, mock.Anything, broken).Return(nil, errors.New("connection refused"))

	metrics := &mockMetrics{}
	metrics.On("RecordEvaluated", mock.Anything)
	metrics.On("RecordSent", mock.Anything, types.ChannelWebhook).Once()
	metrics.On("RecordDeliveryFailed", mock.Anything, types.ChannelWebhook).Twice()

	run, err := newAlerter(t, sender, metrics, ok, gone, broken).Run(context.Background(), firstWindowStart.Add(-testLead))
	require.NoError(t, err)

	assert.Equal(t, 1, run.Sent)
	assert.Equal(t, 2, run.Failed)
	assert.True(t, run.Outcomes[1].Result.Terminal)
	assert.Equal(t, "connection refused", run.Outcomes[2].Err)
	metrics.AssertExpectations(t)
}

func TestRun_NotDue(t *testing.T) {
	sender := &mockSender{}
	metrics := &mockMetrics{}
	metrics.On("RecordEvaluated", mock.Anything).Once()

	run, err := newAlerter(t, sender, metrics, "https://discord.com/api/webhooks/1/a").Run(context.Background(), firstWindowStart.Add(-time.Hour))
	require.NoError(t, err)

	assert.False(t, run.Alerted)
	require.NotNil(t, run.Window)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_SkipsWhilePrecipitating(t *testing.T) {
	sender := &mockSender{}
	metrics := &mockMetrics{}
	metrics.On("RecordEvaluated", mock.Anything).Once()

	// Offset 131.5 is inside the rain that runs until 137; the drizzle from
	// 134 continues it and must not alert.
	now := time.Unix(int64(131.5*weather.GameSecondsPerHour), 0).UTC()
	run, err := newAlerter(t, sender, metrics, "https://discord.com/api/webhooks/1/a").Run(context.Background(), now)
	require.NoError(t, err)

	assert.False(t, run.Alerted)
	assert.Nil(t, run.Window)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_DryRunWithoutDestinations(t *testing.T) {
	run, err := newAlerter(t, nil, nil).Run(context.Background(), firstWindowStart.Add(-testLead))
	require.NoError(t, err)

	assert.True(t, run.Alerted)
	assert.Empty(t, run.Outcomes)
	assert.Zero(t, run.Sent)
}

func TestRun_InvalidInstant(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("RecordEvaluated", mock.Anything)

	_, err := newAlerter(t, nil, metrics).Run(context.Background(), time.Time{})
	assert.ErrorIs(t, err, weather.ErrInvalidInput)
}
