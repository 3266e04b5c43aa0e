package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/spf13/cobra"

	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/history"
	"github.com/teemow/calimport/internal/importer"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/logging"
	"github.com/teemow/calimport/internal/schedule"
	"github.com/teemow/calimport/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// ServeConfig is everything the serve command needs.
type ServeConfig struct {
	Server      server.Config
	OAuth       google.OAuthConfig
	SheetsDir   string
	CalendarID  string
	Timezone    string
	DatabaseURL string
	Metrics     MetricsConfig
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr           string
		googleClientID     string
		googleClientSecret string
		redirectURI        string
		sessionSecret      string
		sessionTimeout     time.Duration
		sheetsDir          string
		uploadDir          string
		maxUploadSize      int64
		calendarID         string
		timezone           string
		databaseURL        string
		trustProxy         bool
		metricsEnabled     bool
		metricsAddr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web application",
		Long: `Start the schedule importer web application.

Users sign in with Google, pick one of the bundled schedules
(<sheets-dir>/schedule1.csv to schedule6.csv) or upload their own CSV, and
the events are created in their Google Calendar.

Google OAuth (required):
  --google-client-id / GOOGLE_CLIENT_ID
  --google-client-secret / GOOGLE_CLIENT_SECRET
  --redirect-uri / REDIRECT_URI (must be registered with Google; HTTPS
    outside localhost)

Sessions (required):
  --session-secret / SESSION_SECRET signs the session cookie

Import history is kept in memory unless --database-url / DATABASE_URL
points to PostgreSQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ServeConfig{
				Server: server.Config{
					Addr:           stringFlagOrEnv(cmd, "http-addr", "HTTP_ADDR", httpAddr),
					UploadDir:      stringFlagOrEnv(cmd, "upload-dir", "UPLOAD_DIR", uploadDir),
					SessionSecret:  stringFlagOrEnv(cmd, "session-secret", "SESSION_SECRET", sessionSecret),
					SessionTimeout: durationFlagOrEnv(cmd, "session-timeout", "SESSION_TIMEOUT", sessionTimeout),
					MaxUploadSize:  int64FlagOrEnv(cmd, "max-upload-size", "MAX_UPLOAD_SIZE", maxUploadSize),
					TrustProxy:     boolFlagOrEnv(cmd, "trust-proxy", "TRUST_PROXY", trustProxy),
				},
				OAuth: google.OAuthConfig{
					ClientID:     stringFlagOrEnv(cmd, "google-client-id", "GOOGLE_CLIENT_ID", googleClientID),
					ClientSecret: stringFlagOrEnv(cmd, "google-client-secret", "GOOGLE_CLIENT_SECRET", googleClientSecret),
					RedirectURL:  stringFlagOrEnv(cmd, "redirect-uri", "REDIRECT_URI", redirectURI),
				},
				SheetsDir:   stringFlagOrEnv(cmd, "sheets-dir", "SHEETS_DIR", sheetsDir),
				CalendarID:  stringFlagOrEnv(cmd, "calendar-id", "CALENDAR_ID", calendarID),
				Timezone:    stringFlagOrEnv(cmd, "timezone", "IMPORT_TIMEZONE", timezone),
				DatabaseURL: stringFlagOrEnv(cmd, "database-url", "DATABASE_URL", databaseURL),
				Metrics: MetricsConfig{
					Enabled: boolFlagOrEnv(cmd, "metrics-enabled", "METRICS_ENABLED", metricsEnabled),
					Addr:    stringFlagOrEnv(cmd, "metrics-addr", "METRICS_ADDR", metricsAddr),
				},
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAddr, "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "http://localhost:3000/auth/google/callback", "OAuth redirect URI. Can also use REDIRECT_URI env var.")
	cmd.Flags().StringVar(&sessionSecret, "session-secret", "", "Secret used to sign session cookies. Can also use SESSION_SECRET env var.")
	cmd.Flags().DurationVar(&sessionTimeout, "session-timeout", server.DefaultSessionTimeout, "Idle time after which a session expires. Can also use SESSION_TIMEOUT env var.")
	cmd.Flags().StringVar(&sheetsDir, "sheets-dir", "sheets", "Directory holding schedule1.csv to schedule6.csv. Can also use SHEETS_DIR env var.")
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "uploads", "Directory for uploaded files while they are imported. Can also use UPLOAD_DIR env var.")
	cmd.Flags().Int64Var(&maxUploadSize, "max-upload-size", server.DefaultMaxUploadSize, "Maximum upload size in bytes. Can also use MAX_UPLOAD_SIZE env var.")
	cmd.Flags().StringVar(&calendarID, "calendar-id", "", "Target calendar (default: the user's primary calendar). Can also use CALENDAR_ID env var.")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone schedule times are written in (default: server local time). Can also use IMPORT_TIMEZONE env var.")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL for import history (default: in memory). Can also use DATABASE_URL env var.")
	cmd.Flags().BoolVar(&trustProxy, "trust-proxy", false, "Trust X-Forwarded-For and X-Real-IP headers. Can also use TRUST_PROXY env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func (c ServeConfig) validate() error {
	var errs []error
	if err := c.OAuth.Validate(); err != nil {
		errs = append(errs, err)
	} else if err := server.ValidateRedirectURL(c.OAuth.RedirectURL); err != nil {
		errs = append(errs, err)
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func runServe(ctx context.Context, cfg ServeConfig) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	location, err := schedule.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	if cfg.Server.UploadDir != "" {
		if err := os.MkdirAll(cfg.Server.UploadDir, 0o700); err != nil {
			return fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			slog.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	metrics := provider.Metrics()
	audit := instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging)

	serverErr := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() && provider.HasPrometheusExporter() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	store, err := history.Open(shutdownCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	checks := map[string]server.Pinger{}
	if pinger, ok := store.(server.Pinger); ok {
		checks["history"] = pinger
	}

	tokenStore := memory.New()
	defer tokenStore.Stop()

	imp, err := importer.New(importer.Config{
		SheetsDir:  cfg.SheetsDir,
		CalendarID: cfg.CalendarID,
		Location:   location,
		NewClient:  importer.GoogleClientFactory(cfg.OAuth),
		History:    store,
		Metrics:    metrics,
		Audit:      audit,
		Logger:     logging.DefaultLogger(),
	})
	if err != nil {
		return err
	}

	sessions := server.NewSessionManager(server.SessionManagerConfig{
		Secret:        cfg.Server.SessionSecret,
		Timeout:       cfg.Server.SessionTimeout,
		SecureCookies: isHTTPS(cfg.OAuth.RedirectURL),
		Tokens:        google.NewTokenStoreProvider(tokenStore),
		Metrics:       metrics,
	})

	srv, err := server.New(cfg.Server, server.Deps{
		OAuth:    cfg.OAuth.Config(),
		Importer: imp,
		Catalog:  imp.Catalog(),
		Sessions: sessions,
		History:  store,
		Health:   server.NewHealthChecker(checks),
		Metrics:  metrics,
	})
	if err != nil {
		sessions.Stop()
		return err
	}

	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()
	slog.Info("calimport started",
		"addr", cfg.Server.Addr,
		"sheets_dir", cfg.SheetsDir,
		"history", historyBackend(cfg.DatabaseURL),
		"timezone", location.String())

	var runErr error
	select {
	case <-shutdownCtx.Done():
		slog.Info("shutdown signal received, stopping servers")
	case runErr = <-serverErr:
	}

	stopCtx, stop := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer stop()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			slog.Warn("error during metrics server shutdown", logging.Err(err))
		}
	}
	if err := srv.Shutdown(stopCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to stop web server: %w", err))
	}
	return runErr
}

func isHTTPS(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://")
}

func historyBackend(databaseURL string) string {
	if databaseURL == "" {
		return "memory"
	}
	return "postgres"
}
