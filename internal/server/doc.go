// Package server provides the web surface of calimport: Google sign-in,
// the dashboard, schedule and upload imports, health probes and the
// dedicated metrics server.
//
// # Key Components
//
// Server wires a chi router with the application routes:
//   - GET  /                      sign-in page
//   - GET  /auth/google           redirect to Google with a state cookie
//   - GET  /auth/google/callback  code exchange, profile lookup, session
//   - GET  /dashboard             schedule list, upload form, recent imports
//   - POST /importing             interstitial page for a schedule import
//   - POST /import-schedule       import one of the bundled schedules
//   - POST /upload-csv            import an uploaded CSV (field "csvfile")
//   - GET  /logout                end the session
//
// SessionManager maps a signed session cookie to the signed-in user. The
// user's Google tokens live in an mcp-oauth token store keyed by session id
// and are deleted on logout or when the session expires.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed.
// MetricsServer exposes Prometheus metrics on a separate port.
//
// # Security Features
//
//   - HMAC-signed, HttpOnly, SameSite=Lax session cookie
//   - OAuth state parameter bound to a short-lived cookie
//   - Per-IP rate limiting (health probes exempt)
//   - Security headers on all HTTP responses
//   - Upload size limit
//   - HTTPS required for the OAuth redirect URL outside localhost
package server
