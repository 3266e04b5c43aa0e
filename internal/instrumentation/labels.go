package instrumentation

import "time"

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	ServiceCalendar = "calendar"
	ServiceOAuth2   = "oauth2"

	OperationCreate   = "create"
	OperationGet      = "get"
	OperationUserInfo = "userinfo"
	OperationExchange = "exchange"

	RowAccepted = "accepted"
	RowSkipped  = "skipped"
)

// Exporter names.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the export interval of the periodic readers.
const DefaultMetricInterval = 10 * time.Second
