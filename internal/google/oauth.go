package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthConfig identifies this application to Google.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Scopes overrides DefaultOAuthScopes when set.
	Scopes []string
}

// Validate reports missing client settings.
func (c OAuthConfig) Validate() error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, errors.New("client ID is required"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("client secret is required"))
	}
	if c.RedirectURL == "" {
		errs = append(errs, errors.New("redirect URL is required"))
	}
	return errors.Join(errs...)
}

// Config returns the oauth2 configuration for Google's endpoints.
func (c OAuthConfig) Config() *oauth2.Config {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  c.RedirectURL,
		Scopes:       append([]string(nil), scopes...),
	}
}

// Credentials are the tokens Google issued for one signed-in user.
type Credentials struct {
	AccessToken  string
	RefreshToken string

	// Expiry is optional. A zero value means the access token is used until
	// Google rejects it.
	Expiry time.Time
}

// Token converts c to an oauth2 token.
func (c Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// IsZero reports whether c holds no access token.
func (c Credentials) IsZero() bool {
	return c.AccessToken == ""
}

// CredentialsFromToken extracts Credentials from an oauth2 token.
func CredentialsFromToken(t *oauth2.Token) Credentials {
	if t == nil {
		return Credentials{}
	}
	return Credentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// HTTPClient returns an HTTP client authenticated with creds. Expired access
// tokens are refreshed through conf when a refresh token is present.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors,
// and outgoing requests are traced.
func HTTPClient(ctx context.Context, conf *oauth2.Config, creds Credentials) (*http.Client, error) {
	if creds.IsZero() {
		return nil, errors.New("no Google access token available")
	}

	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, creds.Token()))

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok && transport.Base == nil {
		transport.Base = otelhttp.NewTransport(&http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		})
	}

	return client, nil
}

// GenerateState returns a random value for the OAuth state parameter.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
