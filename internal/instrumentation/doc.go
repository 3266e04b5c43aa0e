// Package instrumentation provides OpenTelemetry instrumentation for the
// calimport web application.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, OAuth sign-ins, Google API calls and imports
//   - Distributed tracing for imports and the Calendar calls they make
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//   - Audit records for every finished import
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of signed-in sessions
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of sign-in attempts by result
//
// Import Metrics:
//   - csv_rows_total: Counter of CSV rows by result (accepted, skipped)
//   - calendar_imports_total: Counter of imports by kind and status
//   - calendar_import_duration_seconds: Histogram of import durations
//   - calendar_events_imported_total: Counter of created events by kind
//
// # Tracing
//
// Spans are created for:
//   - HTTP request handling (otelhttp)
//   - Imports (import.<kind>)
//   - Google API calls (google.<service>.<operation>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: calimport)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordImport(ctx, "schedule", "schedule1.csv", "success", 7, time.Since(start))
package instrumentation
