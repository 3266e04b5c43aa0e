package google

import (
	"context"
	"testing"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStoreProvider(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	provider := NewTokenStoreProvider(store)
	ctx := context.Background()

	_, err := provider.Credentials(ctx, "session-1")
	assert.Error(t, err, "unknown key should fail")

	creds := Credentials{AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, provider.Save(ctx, "session-1", creds))

	got, err := provider.Credentials(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)

	require.NoError(t, provider.Delete(ctx, "session-1"))
	_, err = provider.Credentials(ctx, "session-1")
	assert.Error(t, err)
}

var _ TokenProvider = (*TokenStoreProvider)(nil)
