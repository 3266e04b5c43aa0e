package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/oauth2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/importer"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/logging"
	"github.com/teemow/calimport/internal/views"
)

const (
	stateCookieName = "calimport_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// User-facing messages.
const (
	msgInvalidSchedule  = "Invalid schedule selection."
	msgScheduleNotFound = "Schedule CSV file not found."
	msgNoUpload         = "No CSV file uploaded."
	msgUploadTooLarge   = "The uploaded file is too large."
)

type sessionContextKey struct{}

func sessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionContextKey{}).(Session)
	return s
}

// requireSession redirects requests without a valid session to the sign-in
// page.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Lookup(r)
		if !ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess)))
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("failed to render page", logging.Err(err))
	}
}

// importLogger tags the request logger with the import operation and, when
// the request is traced, its trace and span ids.
func importLogger(ctx context.Context, operation string) *slog.Logger {
	logger := logging.WithOperation(logging.FromContext(ctx), operation)
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID, "span_id", instrumentation.GetSpanID(ctx))
	}
	return logger
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, views.Home())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := google.GenerateState()
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to start sign-in", logging.Err(err))
		http.Error(w, "Sign-in is unavailable right now.", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	// Offline access yields a refresh token so long imports survive token
	// expiry.
	http.Redirect(w, r, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth/google", MaxAge: -1})

	fail := func(reason string, err error) {
		s.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("sign-in failed", "reason", reason, logging.Err(err))
		http.Redirect(w, r, "/", http.StatusFound)
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		fail("state mismatch", err)
		return
	}
	if e := r.URL.Query().Get("error"); e != "" {
		fail("denied", errors.New(e))
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		fail("missing code", nil)
		return
	}

	start := time.Now()
	token, err := s.oauth.Exchange(ctx, code)
	s.recordGoogle(ctx, instrumentation.OperationExchange, err, start)
	if err != nil {
		fail("code exchange", err)
		return
	}
	creds := google.CredentialsFromToken(token)

	client, err := google.HTTPClient(ctx, s.oauth, creds)
	if err != nil {
		fail("client", err)
		return
	}

	start = time.Now()
	profile, err := s.fetchProfile(ctx, client)
	s.recordGoogle(ctx, instrumentation.OperationUserInfo, err, start)
	if err != nil {
		fail("profile", err)
		return
	}

	if _, err := s.sessions.Create(ctx, w, profile, creds); err != nil {
		fail("session", err)
		return
	}

	s.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	logger.Info("user signed in", logging.UserHash(profile.Email), logging.Domain(profile.Email))
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) recordGoogle(ctx context.Context, operation string, err error, start time.Time) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceOAuth2, operation, status, time.Since(start))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	data := views.DashboardData{Name: displayName(sess.Name)}
	for _, entry := range s.catalog.Entries() {
		data.Schedules = append(data.Schedules, views.ScheduleOption{Index: entry.Index, Label: entry.Label})
	}

	if s.history != nil {
		recent, err := s.history.Recent(r.Context(), logging.AnonymizeEmail(sess.Email), s.cfg.HistoryLimit)
		if err != nil {
			logging.FromContext(r.Context()).Warn("failed to load import history", logging.Err(err))
		}
		for _, e := range recent {
			data.Recent = append(data.Recent, views.HistoryRow{
				Source:   e.Source,
				Kind:     e.Kind,
				Imported: e.Imported,
				Status:   e.Status,
				When:     e.StartedAt.Local(),
			})
		}
	}

	s.render(w, r, http.StatusOK, views.Dashboard(data))
}

func (s *Server) handleImporting(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PostFormValue("schedule"))
	if err != nil {
		s.render(w, r, http.StatusOK, views.Message(msgInvalidSchedule, false))
		return
	}
	s.render(w, r, http.StatusOK, views.Importing(index))
}

func (s *Server) handleImportSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := importLogger(ctx, "import_schedule")

	index, err := strconv.Atoi(r.PostFormValue("schedule"))
	if err != nil {
		s.render(w, r, http.StatusOK, views.Message(msgInvalidSchedule, false))
		return
	}

	user, ok := s.user(w, r)
	if !ok {
		return
	}

	res, err := s.importer.ImportSchedule(ctx, index, user)
	switch {
	case errors.Is(err, importer.ErrInvalidSchedule):
		s.render(w, r, http.StatusOK, views.Message(msgInvalidSchedule, false))
	case errors.Is(err, importer.ErrScheduleNotFound):
		s.render(w, r, http.StatusOK, views.Message(msgScheduleNotFound, false))
	case err != nil:
		logger.Error("schedule import failed", logging.Schedule(index), logging.Err(err))
		s.render(w, r, http.StatusOK, views.Message("Error importing schedule CSV: "+err.Error(), false))
	default:
		s.render(w, r, http.StatusOK, views.Message(
			fmt.Sprintf("Done! %d schedule events imported from %s", res.Imported, res.Source), true))
	}
}

func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := importLogger(ctx, "import_upload")

	if r.ContentLength > s.cfg.MaxUploadSize {
		s.render(w, r, http.StatusRequestEntityTooLarge, views.Message(msgUploadTooLarge, false))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.render(w, r, http.StatusRequestEntityTooLarge, views.Message(msgUploadTooLarge, false))
			return
		}
		s.render(w, r, http.StatusOK, views.Message(msgNoUpload, false))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("csvfile")
	if err != nil {
		s.render(w, r, http.StatusOK, views.Message(msgNoUpload, false))
		return
	}
	defer file.Close()

	user, ok := s.user(w, r)
	if !ok {
		return
	}

	tmpPath, err := s.saveUpload(file)
	if err != nil {
		logger.Error("failed to store upload", logging.Err(err))
		s.render(w, r, http.StatusOK, views.Message("Error importing uploaded CSV file: could not store the upload", false))
		return
	}

	res, err := s.importer.ImportUpload(ctx, tmpPath, header.Filename, user)
	if err != nil {
		logger.Error("upload import failed", logging.Source(header.Filename), logging.Err(err))
		s.render(w, r, http.StatusOK, views.Message("Error importing uploaded CSV file: "+err.Error(), false))
		return
	}
	s.render(w, r, http.StatusOK, views.Message(fmt.Sprintf("%d events imported from uploaded CSV", res.Imported), true))
}

// saveUpload copies an uploaded file into the upload directory. The importer
// removes it once the import is done.
func (s *Server) saveUpload(src io.Reader) (string, error) {
	dst, err := os.CreateTemp(s.cfg.UploadDir, "upload-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return dst.Name(), nil
}

// user returns the importer user for the current session. When the stored
// credentials are gone the session is ended and the user sent to sign in
// again.
func (s *Server) user(w http.ResponseWriter, r *http.Request) (importer.User, bool) {
	sess := sessionFromContext(r.Context())
	creds, err := s.sessions.Credentials(r.Context(), sess)
	if err != nil || creds.IsZero() {
		logging.FromContext(r.Context()).Warn("session has no Google credentials", logging.UserHash(sess.Email), logging.Err(err))
		s.sessions.Destroy(r.Context(), w, r)
		http.Redirect(w, r, "/", http.StatusFound)
		return importer.User{}, false
	}
	return importer.User{Email: sess.Email, Credentials: creds}, true
}

// displayName capitalizes each word of a profile name.
func displayName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}
