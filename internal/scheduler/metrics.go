package scheduler

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"raceweather/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ AlertMetrics = (*CloudWatchAlertMetrics)(nil)

// CloudWatchAlertMetrics emits alert job metrics to CloudWatch.
//
// Metrics emitted:
//   - AlertsEvaluated: no dims, once per run
//   - AlertsSent: Dims {Channel}, per successful delivery
//   - DeliveryFailed: Dims {Channel}, per failed delivery
type CloudWatchAlertMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchAlertMetrics publishes to namespace, or to
// types.MetricNamespace when namespace is empty.
func NewCloudWatchAlertMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchAlertMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchAlertMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordEvaluated counts one alert evaluation.
func (m *CloudWatchAlertMetrics) RecordEvaluated(ctx context.Context) {
	m.put(ctx, types.MetricAlertsEvaluated, nil)
}

// RecordSent counts one delivered alert.
func (m *CloudWatchAlertMetrics) RecordSent(ctx context.Context, channel types.ChannelType) {
	m.put(ctx, types.MetricAlertsSent, channelDims(channel))
}

// RecordDeliveryFailed counts one failed alert delivery.
func (m *CloudWatchAlertMetrics) RecordDeliveryFailed(ctx context.Context, channel types.ChannelType) {
	m.put(ctx, types.MetricDeliveryFailed, channelDims(channel))
}

func (m *CloudWatchAlertMetrics) put(ctx context.Context, name string, dims []cwtypes.Dimension) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record metric",
			"error", err.Error(),
			"metric", name,
		)
	}
}

func channelDims(channel types.ChannelType) []cwtypes.Dimension {
	return []cwtypes.Dimension{
		{
			Name:  aws.String(types.DimChannel),
			Value: aws.String(string(channel)),
		},
	}
}

// NoopAlertMetrics discards all metrics. Used when CloudWatch is disabled.
type NoopAlertMetrics struct{}

func (NoopAlertMetrics) RecordEvaluated(context.Context)                         {}
func (NoopAlertMetrics) RecordSent(context.Context, types.ChannelType)           {}
func (NoopAlertMetrics) RecordDeliveryFailed(context.Context, types.ChannelType) {}
