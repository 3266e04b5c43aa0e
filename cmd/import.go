package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/teemow/calimport/internal/calendar"
	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/history"
	"github.com/teemow/calimport/internal/importer"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/logging"
	"github.com/teemow/calimport/internal/schedule"
)

type importOptions struct {
	file         string
	schedule     int
	email        string
	credentials  google.Credentials
	oauth        google.OAuthConfig
	sheetsDir    string
	calendarID   string
	timezone     string
	databaseURL  string
	dryRun       bool
	clientOpts   []option.ClientOption
	auditEnabled bool
}

func newImportCmd() *cobra.Command {
	var (
		file         string
		scheduleIdx  int
		email        string
		accessToken  string
		refreshToken string
		clientID     string
		clientSecret string
		sheetsDir    string
		calendarID   string
		timezone     string
		databaseURL  string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a schedule CSV into Google Calendar",
		Long: `Import a schedule CSV into Google Calendar without the web application.

Pass either --file with a CSV path or --schedule with a bundled schedule
number (1 to 6). The Google access token comes from --access-token or
GOOGLE_ACCESS_TOKEN. With a refresh token and the OAuth client settings an
expired access token is refreshed automatically.

Use --dry-run to parse and validate the CSV without contacting Google.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := importOptions{
				file:     file,
				schedule: scheduleIdx,
				email:    stringFlagOrEnv(cmd, "email", "GOOGLE_EMAIL", email),
				credentials: google.Credentials{
					AccessToken:  stringFlagOrEnv(cmd, "access-token", "GOOGLE_ACCESS_TOKEN", accessToken),
					RefreshToken: stringFlagOrEnv(cmd, "refresh-token", "GOOGLE_REFRESH_TOKEN", refreshToken),
				},
				oauth: google.OAuthConfig{
					ClientID:     stringFlagOrEnv(cmd, "google-client-id", "GOOGLE_CLIENT_ID", clientID),
					ClientSecret: stringFlagOrEnv(cmd, "google-client-secret", "GOOGLE_CLIENT_SECRET", clientSecret),
				},
				sheetsDir:    stringFlagOrEnv(cmd, "sheets-dir", "SHEETS_DIR", sheetsDir),
				calendarID:   stringFlagOrEnv(cmd, "calendar-id", "CALENDAR_ID", calendarID),
				timezone:     stringFlagOrEnv(cmd, "timezone", "IMPORT_TIMEZONE", timezone),
				databaseURL:  stringFlagOrEnv(cmd, "database-url", "DATABASE_URL", databaseURL),
				dryRun:       dryRun,
				auditEnabled: true,
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path of the CSV file to import")
	cmd.Flags().IntVar(&scheduleIdx, "schedule", 0, "Number of the bundled schedule to import (1-6)")
	cmd.Flags().StringVar(&email, "email", "", "Email recorded in the import history. Can also use GOOGLE_EMAIL env var.")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "Google OAuth access token. Can also use GOOGLE_ACCESS_TOKEN env var.")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Google OAuth refresh token. Can also use GOOGLE_REFRESH_TOKEN env var.")
	cmd.Flags().StringVar(&clientID, "google-client-id", "", "Google OAuth Client ID, needed to refresh tokens. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "google-client-secret", "", "Google OAuth Client Secret, needed to refresh tokens. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&sheetsDir, "sheets-dir", "sheets", "Directory holding schedule1.csv to schedule6.csv. Can also use SHEETS_DIR env var.")
	cmd.Flags().StringVar(&calendarID, "calendar-id", "", "Target calendar (default: primary). Can also use CALENDAR_ID env var.")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone schedule times are written in (default: local time). Can also use IMPORT_TIMEZONE env var.")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL to record the import in (default: not recorded). Can also use DATABASE_URL env var.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate the CSV without creating events")
	cmd.MarkFlagsMutuallyExclusive("file", "schedule")

	return cmd
}

func (o importOptions) validate() error {
	if o.file == "" && o.schedule == 0 {
		return errors.New("one of --file or --schedule is required")
	}
	if o.file != "" && o.schedule != 0 {
		return errors.New("--file and --schedule cannot be used together")
	}
	if !o.dryRun && o.credentials.IsZero() {
		return errors.New("a Google access token is required (--access-token or GOOGLE_ACCESS_TOKEN)")
	}
	return nil
}

func runImport(ctx context.Context, out io.Writer, o importOptions) error {
	if err := o.validate(); err != nil {
		return err
	}

	location, err := schedule.LoadLocation(o.timezone)
	if err != nil {
		return err
	}

	if o.dryRun {
		return dryRunImport(out, o, location)
	}

	// Reject an unknown schedule before Google is contacted.
	if o.schedule != 0 {
		if _, err := importer.NewCatalog(o.sheetsDir).Resolve(o.schedule); err != nil {
			return err
		}
	}

	client, err := calendar.NewClient(ctx, o.oauth, o.credentials, o.clientOpts...)
	if err != nil {
		return err
	}
	name, err := client.CalendarName(ctx, o.calendarID)
	if err != nil {
		return fmt.Errorf("calendar is not reachable: %w", err)
	}
	fmt.Fprintf(out, "Importing into calendar %q\n", name)

	var store history.Store
	if o.databaseURL != "" {
		store, err = history.Open(ctx, o.databaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	imp, err := importer.New(importer.Config{
		SheetsDir:  o.sheetsDir,
		CalendarID: o.calendarID,
		Location:   location,
		NewClient: func(context.Context, google.Credentials) (importer.EventInserter, error) {
			return client, nil
		},
		History: store,
		Audit:   instrumentation.NewAuditLoggerWithConfig(nil, instrumentation.AuditLoggingConfig{Enabled: o.auditEnabled}),
		Logger:  logging.DefaultLogger().With(logging.Operation("cli_import")),
	})
	if err != nil {
		return err
	}

	user := importer.User{Email: o.email, Credentials: o.credentials}
	var res importer.Result
	if o.file != "" {
		res, err = imp.ImportFile(ctx, o.file, user)
	} else {
		res, err = imp.ImportSchedule(ctx, o.schedule, user)
	}
	if err != nil {
		var subErr *importer.SubmissionError
		if errors.As(err, &subErr) {
			fmt.Fprintf(out, "%d events were created before the import stopped\n", subErr.Created)
		}
		return err
	}

	fmt.Fprintf(out, "Done! %d schedule events imported from %s (%d rows read, %d skipped)\n",
		res.Imported, res.Source, res.RowsRead, res.RowsSkipped)
	return nil
}

// dryRunImport reads and normalizes the CSV and prints the events that would
// be created.
func dryRunImport(out io.Writer, o importOptions, location *time.Location) error {
	path := o.file
	if path == "" {
		var err error
		path, err = importer.NewCatalog(o.sheetsDir).Resolve(o.schedule)
		if err != nil {
			return err
		}
	}

	r, err := schedule.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	result, err := schedule.Collect(r, schedule.Normalizer{Location: location})
	if err != nil {
		return err
	}

	for _, ev := range result.Events {
		fmt.Fprintf(out, "%s  %s - %s  %s\n",
			ev.Start.In(location).Format("2006-01-02"),
			ev.Start.In(location).Format("15:04"),
			ev.End.In(location).Format("15:04"),
			ev.Summary)
	}
	fmt.Fprintf(out, "%d events would be imported from %s (%d rows read, %d skipped)\n",
		len(result.Events), filepath.Base(path), result.RowsRead, result.RowsSkipped)
	return nil
}
