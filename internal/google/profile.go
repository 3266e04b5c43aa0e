package google

import (
	"context"
	"fmt"
	"net/http"

	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Profile is the signed-in user's identity.
type Profile struct {
	ID    string
	Name  string
	Email string
}

// FetchProfile looks up the user behind an authenticated client.
func FetchProfile(ctx context.Context, client *http.Client, opts ...option.ClientOption) (Profile, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create OAuth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, fmt.Errorf("failed to fetch user info: %w", err)
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	return Profile{ID: info.Id, Name: name, Email: info.Email}, nil
}
