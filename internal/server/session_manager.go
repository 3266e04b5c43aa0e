package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/logging"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "calimport_session"

// DefaultSessionCleanupInterval is how often expired sessions are swept.
const DefaultSessionCleanupInterval = 10 * time.Minute

// CredentialStore keeps Google credentials per session id.
type CredentialStore interface {
	Save(ctx context.Context, key string, creds google.Credentials) error
	Credentials(ctx context.Context, key string) (google.Credentials, error)
	Delete(ctx context.Context, key string) error
}

// Session is a signed-in user.
type Session struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// sessionInfo tracks session metadata for cleanup
type sessionInfo struct {
	session    Session
	lastAccess time.Time
}

// SessionManagerConfig configures a SessionManager.
type SessionManagerConfig struct {
	// Secret signs the session cookie. Required.
	Secret string

	// Timeout is the idle time after which a session expires.
	Timeout time.Duration

	// CleanupInterval is how often expired sessions are swept.
	CleanupInterval time.Duration

	// SecureCookies sets the Secure flag on the session cookie.
	SecureCookies bool

	// Tokens stores the Google credentials of each session. Required.
	Tokens CredentialStore

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// SessionManager maps session cookies to signed-in users. Google tokens are
// kept in the credential store under the session id and removed together
// with the session.
type SessionManager struct {
	sessions      map[string]*sessionInfo
	mu            sync.RWMutex
	tokens        CredentialStore
	secret        []byte
	timeout       time.Duration
	secure        bool
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
	now           func() time.Time
	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	stopOnce      sync.Once
}

// NewSessionManager creates a session manager and starts its sweeper.
// Call Stop to release it.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSessionTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultSessionCleanupInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}

	m := &SessionManager{
		sessions:      make(map[string]*sessionInfo),
		tokens:        cfg.Tokens,
		secret:        []byte(cfg.Secret),
		timeout:       cfg.Timeout,
		secure:        cfg.SecureCookies,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		now:           time.Now,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		cleanupDone:   make(chan struct{}),
	}

	go m.cleanupExpiredSessions()

	return m
}

// Create starts a session for profile, stores creds and sets the cookie.
func (m *SessionManager) Create(ctx context.Context, w http.ResponseWriter, profile google.Profile, creds google.Credentials) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		Name:      profile.Name,
		Email:     profile.Email,
		CreatedAt: m.now(),
	}

	if err := m.tokens.Save(ctx, s.ID, creds); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = &sessionInfo{session: s, lastAccess: s.CreatedAt}
	m.mu.Unlock()
	m.metrics.IncrementActiveSessions(ctx)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    m.sign(s.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.Info("session created", logging.UserHash(s.Email))
	return s, nil
}

// Lookup returns the session of the request and refreshes its last access
// time. Unsigned, unknown and expired sessions are not found.
func (m *SessionManager) Lookup(r *http.Request) (Session, bool) {
	id, ok := m.sessionID(r)
	if !ok {
		return Session{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	now := m.now()
	if now.Sub(info.lastAccess) > m.timeout {
		return Session{}, false
	}
	info.lastAccess = now
	return info.session, true
}

// Credentials returns the Google credentials stored for s.
func (m *SessionManager) Credentials(ctx context.Context, s Session) (google.Credentials, error) {
	return m.tokens.Credentials(ctx, s.ID)
}

// Destroy ends the session of the request, if any, deletes its tokens and
// clears the cookie.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	id, ok := m.sessionID(r)
	if !ok {
		return
	}
	m.remove(ctx, id)
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) remove(ctx context.Context, id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	m.metrics.DecrementActiveSessions(ctx)
	if err := m.tokens.Delete(ctx, id); err != nil {
		m.logger.Warn("failed to delete session token", logging.Err(err))
	}
}

func (m *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *SessionManager) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	id, _, ok := strings.Cut(cookie.Value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(cookie.Value), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}

// expire removes sessions idle for longer than the timeout and returns how
// many were removed.
func (m *SessionManager) expire(ctx context.Context) int {
	now := m.now()

	m.mu.RLock()
	var expired []string
	for id, info := range m.sessions {
		if now.Sub(info.lastAccess) > m.timeout {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.remove(ctx, id)
	}
	return len(expired)
}

// cleanupExpiredSessions periodically removes expired sessions
func (m *SessionManager) cleanupExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.expire(context.Background()); n > 0 {
				m.logger.Info("cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the session cleanup goroutine.
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}
