package google

import (
	"context"
	"fmt"

	"github.com/giantswarm/mcp-oauth/storage"
)

// TokenProvider supplies the Credentials stored for a session key.
type TokenProvider interface {
	Credentials(ctx context.Context, key string) (Credentials, error)
}

// TokenStoreProvider keeps Credentials in an mcp-oauth token store.
type TokenStoreProvider struct {
	store storage.TokenStore
}

// NewTokenStoreProvider creates a provider backed by store.
func NewTokenStoreProvider(store storage.TokenStore) *TokenStoreProvider {
	return &TokenStoreProvider{store: store}
}

// Save stores creds under key, replacing anything stored before.
func (p *TokenStoreProvider) Save(ctx context.Context, key string, creds Credentials) error {
	if err := p.store.SaveToken(ctx, key, creds.Token()); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Credentials returns the tokens stored under key.
func (p *TokenStoreProvider) Credentials(ctx context.Context, key string) (Credentials, error) {
	token, err := p.store.GetToken(ctx, key)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to get token: %w", err)
	}
	return CredentialsFromToken(token), nil
}

// Delete removes the tokens stored under key.
func (p *TokenStoreProvider) Delete(ctx context.Context, key string) error {
	if err := p.store.DeleteToken(ctx, key); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
