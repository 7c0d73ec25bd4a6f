package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAlertsEvaluated = "AlertsEvaluated"
	MetricAlertsSent      = "AlertsSent"
	MetricDeliveryFailed  = "DeliveryFailed"

	// Dimension Keys
	DimChannel = "Channel"

	// Metric Namespace
	MetricNamespace = "RaceWeather"
)
