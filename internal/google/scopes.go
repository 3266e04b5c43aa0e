package google

// DefaultOAuthScopes are the scopes requested at sign-in: identity for the
// dashboard greeting and read/write access to the user's calendars.
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}
