package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailedLabels bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailedLabels)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, key, value string) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordCSVRows(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordCSVRows(ctx, 7, 3)
	m.RecordCSVRows(ctx, 2, 0)

	data := collect(t, reader)["csv_rows_total"]
	if got := sumFor(t, data, attrResult, RowAccepted); got != 9 {
		t.Errorf("accepted rows = %d, want 9", got)
	}
	if got := sumFor(t, data, attrResult, RowSkipped); got != 3 {
		t.Errorf("skipped rows = %d, want 3", got)
	}
}

func TestMetrics_RecordImport(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordImport(ctx, "schedule", "schedule1.csv", StatusSuccess, 7, 2*time.Second)
	m.RecordImport(ctx, "upload", "mine.csv", StatusError, 3, time.Second)

	metrics := collect(t, reader)

	if got := sumFor(t, metrics["calendar_imports_total"], attrStatus, StatusError); got != 1 {
		t.Errorf("failed imports = %d, want 1", got)
	}
	if got := sumFor(t, metrics["calendar_events_imported_total"], attrKind, "schedule"); got != 7 {
		t.Errorf("schedule events = %d, want 7", got)
	}
	if got := sumFor(t, metrics["calendar_events_imported_total"], attrKind, "upload"); got != 3 {
		t.Errorf("upload events = %d, want 3", got)
	}
	if _, ok := metrics["calendar_import_duration_seconds"]; !ok {
		t.Error("expected calendar_import_duration_seconds to be recorded")
	}

	sum := metrics["calendar_imports_total"].(metricdata.Sum[int64])
	for _, dp := range sum.DataPoints {
		if _, ok := dp.Attributes.Value(attrSource); ok {
			t.Error("source label must not be set without detailed labels")
		}
	}
}

func TestMetrics_RecordImport_DetailedLabels(t *testing.T) {
	m, reader := newTestMetrics(t, true)

	m.RecordImport(context.Background(), "upload", "mine.csv", StatusSuccess, 1, time.Second)

	if got := sumFor(t, collect(t, reader)["calendar_imports_total"], attrSource, "mine.csv"); got != 1 {
		t.Errorf("imports with source label = %d, want 1", got)
	}
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/dashboard", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/upload-csv", 500, 50*time.Millisecond)

	if got := sumFor(t, collect(t, reader)["http_requests_total"], attrStatus, "500"); got != 1 {
		t.Errorf("500 responses = %d, want 1", got)
	}
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationCreate, StatusSuccess, 200*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationCreate, StatusError, 500*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceOAuth2, OperationUserInfo, StatusSuccess, 100*time.Millisecond)

	data := collect(t, reader)["google_api_operations_total"]
	if got := sumFor(t, data, attrService, ServiceCalendar); got != 2 {
		t.Errorf("calendar operations = %d, want 2", got)
	}
}

func TestMetrics_OAuthAndSessions(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthAuth(ctx, OAuthResultFailure)
	m.IncrementActiveSessions(ctx)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	metrics := collect(t, reader)
	if got := sumFor(t, metrics["oauth_auth_total"], attrResult, OAuthResultFailure); got != 1 {
		t.Errorf("oauth failures = %d, want 1", got)
	}

	sessions, ok := metrics["active_sessions"].(metricdata.Sum[int64])
	if !ok || len(sessions.DataPoints) != 1 || sessions.DataPoints[0].Value != 1 {
		t.Errorf("active_sessions = %+v, want 1", metrics["active_sessions"])
	}
}

func TestMetrics_UninitializedIsNoop(t *testing.T) {
	m := &Metrics{}
	ctx := context.Background()

	// Should not panic
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationCreate, StatusSuccess, time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordCSVRows(ctx, 1, 1)
	m.RecordImport(ctx, "file", "x.csv", StatusSuccess, 1, time.Millisecond)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)
}
