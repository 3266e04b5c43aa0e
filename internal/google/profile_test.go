package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestFetchProfile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    Profile
		wantErr bool
	}{
		{
			name:   "name and email",
			body:   `{"id":"42","name":"Ada Student","email":"ada@example.com"}`,
			status: http.StatusOK,
			want:   Profile{ID: "42", Name: "Ada Student", Email: "ada@example.com"},
		},
		{
			name:   "name falls back to email",
			body:   `{"id":"7","email":"anon@example.com"}`,
			status: http.StatusOK,
			want:   Profile{ID: "7", Name: "anon@example.com", Email: "anon@example.com"},
		},
		{
			name:    "unauthorized",
			body:    `{"error":{"code":401,"message":"invalid credentials"}}`,
			status:  http.StatusUnauthorized,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/oauth2/v2/userinfo", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := FetchProfile(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
