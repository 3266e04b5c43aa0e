package history

import "context"

// Open returns a PostgresStore when databaseURL is set and a MemoryStore
// otherwise.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewMemoryStore(DefaultMemoryCapacity), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
