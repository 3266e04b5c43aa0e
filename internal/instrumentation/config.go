package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds the OpenTelemetry settings.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// InstanceID defaults to the hostname.
	InstanceID string

	// Enabled turns metrics and tracing on. A disabled provider hands out
	// no-op recorders.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	OTLP OTLPConfig

	// SampleRate is the parent-based trace sampling ratio (0.0 to 1.0).
	SampleRate float64

	// DetailedLabels adds the source file name to import metrics. Upload
	// names are unbounded, so keep it off in production.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// OTLPConfig configures the OTLP HTTP exporters.
type OTLPConfig struct {
	// Endpoint is host:port without a scheme, e.g. "localhost:4318".
	Endpoint string

	// Insecure sends telemetry over plain HTTP. Development only.
	Insecure bool
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if an audit record is written per import.
	Enabled bool

	// IncludePII logs full email addresses instead of hashed identifiers.
	// SECURITY: route audit logs to storage with appropriate access controls.
	IncludePII bool
}

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds a Config from lookup. Unset or unparsable variables
// keep their defaults.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	env := envReader(lookup)
	return Config{
		ServiceName:     env.str("OTEL_SERVICE_NAME", "calimport"),
		ServiceVersion:  "unknown",
		InstanceID:      env.str("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:         env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter: env.str("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter: env.str("TRACING_EXPORTER", ExporterNone),
		OTLP: OTLPConfig{
			Endpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		SampleRate:     env.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels: env.boolean("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    env.boolean("AUDIT_LOGGING_ENABLED", true),
			IncludePII: env.boolean("AUDIT_LOGGING_INCLUDE_PII", false),
		},
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	if c.SampleRate < 0 || c.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.SampleRate))
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLP.Endpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required for the otlp metrics exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}

	switch c.TracingExporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLP.Endpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required for the otlp tracing exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}

	return errors.Join(errs...)
}

type envReader func(string) (string, bool)

func (e envReader) str(key, def string) string {
	if v, ok := e(key); ok && v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return def
}

func (e envReader) float(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(e.str(key, ""), 64); err == nil {
		return f
	}
	return def
}
