package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/history"
	"github.com/teemow/calimport/internal/importer"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/views"
)

// Importer runs imports on behalf of signed-in users.
type Importer interface {
	ImportSchedule(ctx context.Context, index int, user importer.User) (importer.Result, error)
	ImportUpload(ctx context.Context, tmpPath, filename string, user importer.User) (importer.Result, error)
}

// ProfileFetcher looks up the signed-in user's profile with an authorized
// client.
type ProfileFetcher func(ctx context.Context, client *http.Client) (google.Profile, error)

// Deps are the collaborators of the web server. OAuth, Importer, Catalog and
// Sessions are required.
type Deps struct {
	OAuth    *oauth2.Config
	Importer Importer
	Catalog  *importer.Catalog
	Sessions *SessionManager

	// History feeds the recent imports table. Optional.
	History history.Store

	// Health is created when nil.
	Health *HealthChecker

	Metrics      *instrumentation.Metrics
	FetchProfile ProfileFetcher
	Logger       *slog.Logger
}

// Server is the HTTP server of the schedule importer.
type Server struct {
	cfg          Config
	oauth        *oauth2.Config
	importer     Importer
	catalog      *importer.Catalog
	sessions     *SessionManager
	history      history.Store
	health       *HealthChecker
	metrics      *instrumentation.Metrics
	fetchProfile ProfileFetcher
	logger       *slog.Logger
	limiter      *RateLimiter
	router       *chi.Mux
	httpServer   *http.Server
}

// New creates a Server and sets up its routes.
func New(cfg Config, deps Deps) (*Server, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var missing []error
	if deps.OAuth == nil {
		missing = append(missing, errors.New("OAuth config is required"))
	}
	if deps.Importer == nil {
		missing = append(missing, errors.New("importer is required"))
	}
	if deps.Catalog == nil {
		missing = append(missing, errors.New("schedule catalog is required"))
	}
	if deps.Sessions == nil {
		missing = append(missing, errors.New("session manager is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	if deps.Health == nil {
		deps.Health = NewHealthChecker(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = &instrumentation.Metrics{}
	}
	if deps.FetchProfile == nil {
		deps.FetchProfile = func(ctx context.Context, client *http.Client) (google.Profile, error) {
			return google.FetchProfile(ctx, client)
		}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Health.sessions = deps.Sessions.Count

	s := &Server{
		cfg:          cfg,
		oauth:        deps.OAuth,
		importer:     deps.Importer,
		catalog:      deps.Catalog,
		sessions:     deps.Sessions,
		history:      deps.History,
		health:       deps.Health,
		metrics:      deps.Metrics,
		fetchProfile: deps.FetchProfile,
		logger:       deps.Logger,
		limiter:      NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		router:       chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Imports run until Google has accepted every event.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.cfg.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Probes are exempt from rate limiting.
	s.health.RegisterHealthEndpoints(s.router)

	s.router.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(otelhttp.NewMiddleware("calimport"))
		r.Use(httpMetrics(s.metrics))

		r.Handle("/static/*", views.StaticHandler("/static/"))

		r.Get("/", s.handleHome)
		r.Get("/auth/google", s.handleLogin)
		r.Get("/auth/google/callback", s.handleCallback)
		r.Get("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/dashboard", s.handleDashboard)
			r.Post("/importing", s.handleImporting)
			r.Post("/import-schedule", s.handleImportSchedule)
			r.Post("/upload-csv", s.handleUploadCSV)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting web server", "addr", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()
	defer s.limiter.Stop()
	defer s.sessions.Stop()

	s.logger.Info("shutting down web server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
