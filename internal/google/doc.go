// Package google holds the OAuth2 plumbing shared by the Google API clients.
//
// OAuthConfig is built once at startup from flags or environment and turned
// into an *oauth2.Config with Config. A signed-in user's tokens travel as a
// Credentials value; HTTPClient binds them to an authenticated HTTP client
// that refreshes the access token when Google reports it expired.
//
// TokenStoreProvider keeps Credentials in an mcp-oauth storage.TokenStore
// keyed by session, so handlers never hold tokens longer than a request.
package google
