package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/teemow/calimport/internal/calendar"
	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/history"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/logging"
	"github.com/teemow/calimport/internal/schedule"
)

// User is the person an import runs for.
type User struct {
	Email       string
	Credentials google.Credentials
}

// Result summarizes a finished import.
type Result struct {
	Source      string
	RowsRead    int
	RowsSkipped int
	Imported    int
}

// ClientFactory builds a calendar client bound to one user's credentials.
type ClientFactory func(ctx context.Context, creds google.Credentials) (EventInserter, error)

// GoogleClientFactory returns a ClientFactory creating Google Calendar clients.
func GoogleClientFactory(cfg google.OAuthConfig) ClientFactory {
	return func(ctx context.Context, creds google.Credentials) (EventInserter, error) {
		return calendar.NewClient(ctx, cfg, creds)
	}
}

// Config holds the importer's settings and collaborators. Only NewClient is
// required.
type Config struct {
	// SheetsDir holds schedule1.csv through schedule6.csv.
	SheetsDir string

	// CalendarID is the target calendar (default: primary).
	CalendarID string

	// Location is the timezone schedule times are written in (default: Local).
	Location *time.Location

	NewClient ClientFactory
	History   history.Store
	Metrics   *instrumentation.Metrics
	Audit     *instrumentation.AuditLogger
	Logger    logging.Logger
}

// Importer runs imports for signed-in users. It holds no per-import state and
// is safe for concurrent use.
type Importer struct {
	catalog    *Catalog
	normalizer schedule.Normalizer
	calendarID string
	newClient  ClientFactory
	history    history.Store
	metrics    *instrumentation.Metrics
	audit      *instrumentation.AuditLogger
	logger     logging.Logger
	remove     func(name string) error
}

// New creates an Importer.
func New(cfg Config) (*Importer, error) {
	if cfg.NewClient == nil {
		return nil, fmt.Errorf("calendar client factory is required")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = calendar.DefaultCalendarID
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.DefaultLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}

	return &Importer{
		catalog:    NewCatalog(cfg.SheetsDir),
		normalizer: schedule.Normalizer{Location: cfg.Location},
		calendarID: cfg.CalendarID,
		newClient:  cfg.NewClient,
		history:    cfg.History,
		metrics:    cfg.Metrics,
		audit:      cfg.Audit,
		logger:     cfg.Logger,
		remove:     os.Remove,
	}, nil
}

// Catalog returns the bundled schedule catalog.
func (im *Importer) Catalog() *Catalog {
	return im.catalog
}

// ImportSchedule imports the bundled schedule with the given index (1 to 6).
// Out-of-range indices fail with ErrInvalidSchedule before any file access.
func (im *Importer) ImportSchedule(ctx context.Context, index int, user User) (Result, error) {
	path, err := im.catalog.Resolve(index)
	if err != nil {
		im.logger.Warn("schedule not available", logging.Schedule(index), logging.Err(err))
		return Result{}, err
	}
	return im.run(ctx, history.KindSchedule, path, filepath.Base(path), user)
}

// ImportUpload imports an uploaded file stored at tmpPath and removes it
// afterwards, whether or not the import succeeded. filename is the name the
// user uploaded it under.
func (im *Importer) ImportUpload(ctx context.Context, tmpPath, filename string, user User) (Result, error) {
	defer func() {
		if err := im.remove(tmpPath); err != nil && !os.IsNotExist(err) {
			im.logger.Error("failed to remove uploaded file", "path", tmpPath, logging.Err(err))
		}
	}()

	if filename == "" {
		filename = filepath.Base(tmpPath)
	}
	return im.run(ctx, history.KindUpload, tmpPath, filename, user)
}

// ImportFile imports the schedule at path.
func (im *Importer) ImportFile(ctx context.Context, path string, user User) (Result, error) {
	return im.run(ctx, history.KindFile, path, filepath.Base(path), user)
}

func (im *Importer) run(ctx context.Context, kind, path, source string, user User) (res Result, err error) {
	userHash := logging.AnonymizeEmail(user.Email)
	ctx, span := instrumentation.StartImportSpan(ctx, kind,
		instrumentation.NewSpanAttributeBuilder().WithSource(source).WithUser(userHash).Build()...)
	defer span.End()

	record := instrumentation.NewImportRecord(kind, source).WithUser(user.Email).WithSpanContext(ctx)
	res.Source = source

	defer func() {
		record.Complete(res.Imported, res.RowsSkipped, err)
		im.finish(ctx, record, userHash)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}()

	events, err := im.read(path, &res)
	im.metrics.RecordCSVRows(ctx, res.RowsRead-res.RowsSkipped, res.RowsSkipped)
	if err != nil {
		return res, err
	}
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithEvents(len(events)).Build()...)

	if len(events) == 0 {
		return res, nil
	}

	client, err := im.newClient(ctx, user.Credentials)
	if err != nil {
		return res, fmt.Errorf("failed to create calendar client: %w", err)
	}

	res.Imported, err = Submit(ctx, instrumentedInserter{next: client, metrics: im.metrics}, im.calendarID, events)
	return res, err
}

func (im *Importer) read(path string, res *Result) ([]schedule.CalendarEvent, error) {
	r, err := schedule.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	collected, err := schedule.Collect(r, im.normalizer)
	res.RowsRead = collected.RowsRead
	res.RowsSkipped = collected.RowsSkipped
	return collected.Events, err
}

func (im *Importer) finish(ctx context.Context, record *instrumentation.ImportRecord, userHash string) {
	im.metrics.RecordImport(ctx, record.Kind, record.Source, record.Status(), record.Imported, record.Duration)
	im.audit.LogImport(record)

	args := []any{
		logging.Kind(record.Kind),
		logging.Source(record.Source),
		logging.Imported(record.Imported),
		logging.Status(record.Status()),
		slog.Duration(logging.KeyDuration, record.Duration),
	}
	if record.Success {
		im.logger.Info("import finished", args...)
	} else {
		im.logger.Warn("import failed", append(args, logging.KeyError, record.Error)...)
	}

	if im.history == nil {
		return
	}
	entry := history.Entry{
		UserHash:  userHash,
		Source:    record.Source,
		Kind:      record.Kind,
		Imported:  record.Imported,
		Skipped:   record.Skipped,
		Status:    record.Status(),
		Error:     record.Error,
		StartedAt: record.StartTime,
		Duration:  record.Duration,
	}
	// The request may already be cancelled; history is still written.
	if err := im.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		im.logger.Error("failed to record import history", logging.Err(err))
	}
}
