package server

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultAddr is the default listen address of the web server.
	DefaultAddr = ":3000"

	// DefaultSessionTimeout is how long an idle session stays valid.
	DefaultSessionTimeout = 24 * time.Hour

	// DefaultMaxUploadSize limits uploaded CSV files.
	DefaultMaxUploadSize = 5 << 20

	// DefaultRateLimit is the steady per-IP request rate (requests per second).
	DefaultRateLimit = 10

	// DefaultRateBurst is the per-IP burst size.
	DefaultRateBurst = 20

	// DefaultHistoryLimit is how many recent imports the dashboard lists.
	DefaultHistoryLimit = 10
)

// Config holds the web server settings.
type Config struct {
	// Addr is the listen address (e.g. ":3000").
	Addr string

	// UploadDir receives uploaded files until they are imported.
	// Empty means the system temp directory.
	UploadDir string

	// SessionSecret signs the session cookie.
	SessionSecret string

	SessionTimeout time.Duration
	MaxUploadSize  int64
	RateLimit      float64
	RateBurst      int
	HistoryLimit   int

	// TrustProxy makes the rate limiter honour X-Forwarded-For and X-Real-IP.
	TrustProxy bool
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	return c
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	return nil
}

// ValidateRedirectURL checks that the OAuth redirect URL uses HTTPS.
// Plain HTTP is accepted for loopback hosts only.
func ValidateRedirectURL(redirectURL string) error {
	if redirectURL == "" {
		return fmt.Errorf("redirect URL cannot be empty")
	}

	u, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("redirect URL must use HTTPS (got: %s). Use HTTPS or localhost for development", redirectURL)
		}
		return nil
	default:
		return fmt.Errorf("invalid URL scheme: %q. Must be http (localhost only) or https", u.Scheme)
	}
}
