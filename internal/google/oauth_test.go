package google

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OAuthConfig
		wantErr []string
	}{
		{
			name: "complete",
			cfg:  OAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
		},
		{
			name:    "empty",
			cfg:     OAuthConfig{},
			wantErr: []string{"client ID", "client secret", "redirect URL"},
		},
		{
			name:    "missing secret",
			cfg:     OAuthConfig{ClientID: "id", RedirectURL: "http://localhost/cb"},
			wantErr: []string{"client secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestOAuthConfig_Config(t *testing.T) {
	cfg := OAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/auth/google/callback"}
	conf := cfg.Config()

	assert.Equal(t, "id", conf.ClientID)
	assert.Equal(t, "secret", conf.ClientSecret)
	assert.Equal(t, "http://localhost/auth/google/callback", conf.RedirectURL)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)
	assert.Contains(t, conf.Endpoint.AuthURL, "accounts.google.com")

	// The returned scopes must not alias the package default.
	conf.Scopes[0] = "changed"
	assert.Equal(t, "openid", DefaultOAuthScopes[0])
}

func TestOAuthConfig_ConfigCustomScopes(t *testing.T) {
	cfg := OAuthConfig{Scopes: []string{"https://www.googleapis.com/auth/calendar"}}
	assert.Equal(t, []string{"https://www.googleapis.com/auth/calendar"}, cfg.Config().Scopes)
}

func TestDefaultOAuthScopes(t *testing.T) {
	assert.Contains(t, DefaultOAuthScopes, "https://www.googleapis.com/auth/calendar")
	assert.Contains(t, DefaultOAuthScopes, "https://www.googleapis.com/auth/userinfo.email")
	assert.Contains(t, DefaultOAuthScopes, "https://www.googleapis.com/auth/userinfo.profile")
}

func TestCredentials_TokenRoundTrip(t *testing.T) {
	expiry := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	creds := Credentials{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}

	token := creds.Token()
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, creds, CredentialsFromToken(token))

	assert.Equal(t, Credentials{}, CredentialsFromToken(nil))
	assert.True(t, Credentials{}.IsZero())
	assert.False(t, creds.IsZero())
}

type headerRecorder struct {
	auth string
}

func (h *headerRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	h.auth = req.Header.Get("Authorization")
	return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: req}, nil
}

func TestHTTPClient(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		_, err := HTTPClient(context.Background(), OAuthConfig{}.Config(), Credentials{})
		assert.Error(t, err)
	})

	t.Run("sends bearer token", func(t *testing.T) {
		rec := &headerRecorder{}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: rec})

		client, err := HTTPClient(ctx, OAuthConfig{}.Config(), Credentials{AccessToken: "abc"})
		require.NoError(t, err)

		resp, err := client.Get("http://example.invalid/")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Bearer abc", rec.auth)
	})
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
