package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calimport/internal/logging"
)

// ImportRecord captures one finished import for audit logging.
//
// # Privacy Considerations
//
// UserEmail contains PII. It is only written in full when the audit logger
// is configured with IncludePII; otherwise the anonymized hash is used.
type ImportRecord struct {
	Kind      string
	Source    string
	UserEmail string

	StartTime time.Time
	Duration  time.Duration
	Imported  int
	Skipped   int
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewImportRecord creates a record with timing started.
// Call Complete when the import finishes.
func NewImportRecord(kind, source string) *ImportRecord {
	return &ImportRecord{
		Kind:      kind,
		Source:    source,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity information.
func (r *ImportRecord) WithUser(email string) *ImportRecord {
	r.UserEmail = email
	return r
}

// WithSpanContext extracts trace context from the current span.
func (r *ImportRecord) WithSpanContext(ctx context.Context) *ImportRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.TraceID = span.SpanContext().TraceID().String()
		r.SpanID = span.SpanContext().SpanID().String()
	}
	return r
}

// Complete marks the import as finished and calculates duration.
func (r *ImportRecord) Complete(imported, skipped int, err error) *ImportRecord {
	r.Duration = time.Since(r.StartTime)
	r.Imported = imported
	r.Skipped = skipped
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Status returns "success" or "error" based on the Success field.
func (r *ImportRecord) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the record. The user is included in
// full only when includePII is set.
func (r *ImportRecord) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Kind(r.Kind),
		logging.Source(r.Source),
		logging.Imported(r.Imported),
		slog.Int("skipped", r.Skipped),
		slog.Duration(logging.KeyDuration, r.Duration),
		logging.Status(r.Status()),
	}

	if r.UserEmail != "" {
		if includePII {
			attrs = append(attrs, slog.String("user", r.UserEmail))
		} else {
			attrs = append(attrs,
				logging.UserHash(r.UserEmail),
				logging.Domain(r.UserEmail),
			)
		}
	}
	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.SpanID != "" && includePII {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, r.Error))
	}

	return attrs
}

// AuditLogger writes one structured log record per finished import.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLoggerWithConfig creates an AuditLogger. Unless config.IncludePII
// is set, users are logged by anonymized identifiers only.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogImport logs a finished import. A nil receiver is a no-op.
func (al *AuditLogger) LogImport(r *ImportRecord) {
	if al == nil || !al.enabled || r == nil {
		return
	}

	attrs := r.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if r.Success {
		al.logger.Info("import_completed", args...)
	} else {
		al.logger.Warn("import_failed", args...)
	}
}
