package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"raceweather/internal/types"
)

// mockCloudWatchClient records PutMetricData calls for verification.
type mockCloudWatchClient struct {
	calls     []*cloudwatch.PutMetricDataInput
	returnErr error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Info(msg string, args ...any)  {}
func (l *recordingLogger) Error(msg string, args ...any) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  {}
func (l *recordingLogger) With(args ...any) types.Logger { return l }

func TestCloudWatchAlertMetrics_RecordSent(t *testing.T) {
	cw := &mockCloudWatchClient{}
	metrics := NewCloudWatchAlertMetrics(cw, "", &recordingLogger{})

	metrics.RecordSent(context.Background(), types.ChannelWebhook)

	if len(cw.calls) != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", len(cw.calls))
	}
	input := cw.calls[0]
	if *input.Namespace != types.MetricNamespace {
		t.Errorf("expected namespace %q, got %q", types.MetricNamespace, *input.Namespace)
	}

	datum := input.MetricData[0]
	if *datum.MetricName != types.MetricAlertsSent {
		t.Errorf("expected metric name %q, got %q", types.MetricAlertsSent, *datum.MetricName)
	}
	if *datum.Value != 1.0 {
		t.Errorf("expected value 1.0, got %f", *datum.Value)
	}
	if datum.Unit != cwtypes.StandardUnitCount {
		t.Errorf("expected unit Count, got %s", datum.Unit)
	}
	assertDimension(t, datum.Dimensions, types.DimChannel, string(types.ChannelWebhook))
}

func TestCloudWatchAlertMetrics_RecordDeliveryFailed(t *testing.T) {
	cw := &mockCloudWatchClient{}
	metrics := NewCloudWatchAlertMetrics(cw, "RaceWeatherDev", &recordingLogger{})

	metrics.RecordDeliveryFailed(context.Background(), types.ChannelWebhook)

	input := cw.calls[0]
	if *input.Namespace != "RaceWeatherDev" {
		t.Errorf("expected custom namespace, got %q", *input.Namespace)
	}
	if *input.MetricData[0].MetricName != types.MetricDeliveryFailed {
		t.Errorf("unexpected metric %q", *input.MetricData[0].MetricName)
	}
	assertDimension(t, input.MetricData[0].Dimensions, types.DimChannel, string(types.ChannelWebhook))
}

func TestCloudWatchAlertMetrics_RecordEvaluated_NoDimensions(t *testing.T) {
	cw := &mockCloudWatchClient{}
	NewCloudWatchAlertMetrics(cw, "", &recordingLogger{}).RecordEvaluated(context.Background())

	datum := cw.calls[0].MetricData[0]
	if *datum.MetricName != types.MetricAlertsEvaluated {
		t.Errorf("unexpected metric %q", *datum.MetricName)
	}
	if len(datum.Dimensions) != 0 {
		t.Errorf("expected no dimensions, got %d", len(datum.Dimensions))
	}
}

func TestCloudWatchAlertMetrics_ErrorIsLogged(t *testing.T) {
	cw := &mockCloudWatchClient{returnErr: errors.New("throttled")}
	logger := &recordingLogger{}

	NewCloudWatchAlertMetrics(cw, "", logger).RecordSent(context.Background(), types.ChannelWebhook)

	if len(logger.errors) != 1 {
		t.Fatalf("expected 1 logged error, got %d", len(logger.errors))
	}
}

func assertDimension(t *testing.T, dims []cwtypes.Dimension, name, value string) {
	t.Helper()
	for _, d := range dims {
		if *d.Name == name {
			if *d.Value != value {
				t.Errorf("dimension %s: expected %q, got %q", name, value, *d.Value)
			}
			return
		}
	}
	t.Errorf("dimension %s not found", name)
}
