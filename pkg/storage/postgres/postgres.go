// Package postgres provides a PostgreSQL implementation of storage.FileStore.
// It uses pgx/v5 for connection pooling and stores object bodies as BYTEA.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/blobgate/pkg/storage"
)

// Store is a PostgreSQL-backed FileStore.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure Store implements storage.FileStore at compile time.
var _ storage.FileStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, logger: cfg.Logger}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// PutObject inserts obj or replaces the object stored under the same key.
func (s *Store) PutObject(ctx context.Context, obj storage.Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO objects (bucket, key, content_type, data, size, etag, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (bucket, key) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			data         = EXCLUDED.data,
			size         = EXCLUDED.size,
			etag         = EXCLUDED.etag,
			updated_at   = EXCLUDED.updated_at
	`,
		obj.Bucket, obj.Key, obj.ContentType, data, int64(len(data)),
		storage.ComputeETag(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting object: %w", err)
	}
	return nil
}

// GetObject retrieves an object, or storage.ErrNotFound.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (*storage.Object, error) {
	obj := storage.Object{Bucket: bucket, Key: key}

	err := s.pool.QueryRow(ctx, `
		SELECT content_type, data, etag, updated_at
		FROM objects
		WHERE bucket = $1 AND key = $2
	`, bucket, key).Scan(&obj.ContentType, &obj.Data, &obj.ETag, &obj.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying object: %w", err)
	}

	return &obj, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
