package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRedirectURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://schedule.example.com/auth/google/callback"},
		{name: "http localhost", url: "http://localhost:3000/auth/google/callback"},
		{name: "http 127.0.0.1", url: "http://127.0.0.1:3000/auth/google/callback"},
		{name: "http ::1", url: "http://[::1]:3000/auth/google/callback"},
		{name: "https with port", url: "https://schedule.example.com:8443/cb"},
		{name: "http non-localhost", url: "http://schedule.example.com/cb", wantErr: true},
		{name: "localhost substring", url: "http://localhost.example.com/cb", wantErr: true},
		{name: "loopback in domain", url: "http://127.0.0.1.example.com/cb", wantErr: true},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "not a url", wantErr: true},
		{name: "ftp", url: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRedirectURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultSessionTimeout, cfg.SessionTimeout)
	assert.Equal(t, int64(DefaultMaxUploadSize), cfg.MaxUploadSize)
	assert.Equal(t, float64(DefaultRateLimit), cfg.RateLimit)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)

	custom := Config{Addr: ":8080", HistoryLimit: 3}.withDefaults()
	assert.Equal(t, ":8080", custom.Addr)
	assert.Equal(t, 3, custom.HistoryLimit)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, Config{SessionSecret: "s3cret"}.Validate())
}
