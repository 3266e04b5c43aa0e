package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/history"
	"github.com/teemow/calimport/internal/importer"
)

type uploadCall struct {
	filename string
	content  string
	dir      string
}

type fakeImporter struct {
	mu        sync.Mutex
	result    importer.Result
	err       error
	schedules []int
	uploads   []uploadCall
	users     []importer.User
}

func (f *fakeImporter) ImportSchedule(_ context.Context, index int, user importer.User) (importer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules = append(f.schedules, index)
	f.users = append(f.users, user)
	return f.result, f.err
}

func (f *fakeImporter) ImportUpload(_ context.Context, tmpPath, filename string, user importer.User) (importer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer os.Remove(tmpPath)

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		return importer.Result{}, err
	}
	f.uploads = append(f.uploads, uploadCall{filename: filename, content: string(content), dir: filepath.Dir(tmpPath)})
	f.users = append(f.users, user)
	return f.result, f.err
}

type testEnv struct {
	server   *Server
	sessions *SessionManager
	tokens   *google.TokenStoreProvider
	importer *fakeImporter
	history  *history.MemoryStore
	oauth    *oauth2.Config
	cfg      Config
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Deps)) *testEnv {
	t.Helper()

	store := memory.New()
	t.Cleanup(store.Stop)
	tokens := google.NewTokenStoreProvider(store)

	cfg := Config{
		SessionSecret: "test-secret",
		UploadDir:     t.TempDir(),
		RateLimit:     1000,
		RateBurst:     1000,
	}
	sessions := NewSessionManager(SessionManagerConfig{
		Secret: cfg.SessionSecret,
		Tokens: tokens,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	oauthCfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/o/oauth2/auth",
			TokenURL: "https://accounts.example.com/token",
		},
		Scopes: google.DefaultOAuthScopes,
	}

	fake := &fakeImporter{}
	hist := history.NewMemoryStore(0)
	deps := Deps{
		OAuth:    oauthCfg,
		Importer: fake,
		Catalog:  importer.NewCatalog(t.TempDir()),
		Sessions: sessions,
		History:  hist,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		FetchProfile: func(context.Context, *http.Client) (google.Profile, error) {
			return google.Profile{ID: "1", Name: "ada lovelace", Email: "ada@example.com"}, nil
		},
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}

	srv, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.limiter.Stop()
		srv.sessions.Stop()
	})

	return &testEnv{
		server:   srv,
		sessions: deps.Sessions,
		tokens:   tokens,
		importer: fake,
		history:  hist,
		oauth:    deps.OAuth,
		cfg:      cfg,
	}
}

// signIn creates a session directly and returns its cookie.
func (e *testEnv) signIn(t *testing.T, creds google.Credentials) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := e.sessions.Create(context.Background(), rec,
		google.Profile{ID: "1", Name: "ada lovelace", Email: "ada@example.com"}, creds)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func testCredentials() google.Credentials {
	return google.Credentials{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
}

// newTokenServer fakes Google's token endpoint.
func newTokenServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := status
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "auth-code" {
			code = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if code != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "exchanged-access",
			"refresh_token": "exchanged-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}
