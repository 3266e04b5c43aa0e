package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS import_history (
	id          UUID PRIMARY KEY,
	user_hash   TEXT NOT NULL,
	source      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	imported    INTEGER NOT NULL,
	skipped     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS import_history_user_started_idx
	ON import_history (user_hash, started_at DESC);
`

// PostgresStore persists entries in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the history table if
// it does not exist yet.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create import_history table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	e = prepare(e)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_history
			(id, user_hash, source, kind, imported, skipped, status, error, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.UserHash, e.Source, e.Kind, e.Imported, e.Skipped, e.Status, e.Error,
		e.StartedAt, e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import history: %w", err)
	}
	return nil
}

// Recent implements Store.
func (s *PostgresStore) Recent(ctx context.Context, userHash string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_hash, source, kind, imported, skipped, status, error, started_at, duration_ms
		FROM import_history
		WHERE user_hash = $1
		ORDER BY started_at DESC
		LIMIT $2`, userHash, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		var durationMS int64
		err := row.Scan(&e.ID, &e.UserHash, &e.Source, &e.Kind, &e.Imported, &e.Skipped,
			&e.Status, &e.Error, &e.StartedAt, &durationMS)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read import history: %w", err)
	}
	return entries, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
