package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/a12042020/contract-analyzer/constants"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	artifact   JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, key)
);`

// PostgresConfig carries pool settings for the shared store.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PostgresStore persists artifacts in a shared Postgres database for
// deployments where several workers consult the same cache.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// OpenPostgres creates a pgx pool, ensures the cache schema, and returns the store.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "contract-analyzer"

	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 3 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("cache.postgres.connect_failed", "error", err)
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	logger.Info("cache.postgres.open")
	return &PostgresStore{pool: pool, logger: logger, now: time.Now}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Get(ctx context.Context, ns constants.Namespace, key string) (Artifact, bool, error) {
	if err := checkNamespace(ns); err != nil {
		return Artifact{}, false, err
	}
	var (
		a         Artifact
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT artifact, created_at FROM cache_entries WHERE namespace = $1 AND key = $2`,
		string(ns), key,
	).Scan(&a, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("query cache entry: %w", err)
	}
	if !fresh(ns, createdAt, s.now()) {
		s.logger.Debug("cache.postgres.stale", "namespace", ns, "key", key)
		return Artifact{}, false, nil
	}
	return a, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, ns constants.Namespace, key string, a Artifact) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cache_entries (namespace, key, artifact, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, key) DO UPDATE SET artifact = EXCLUDED.artifact, created_at = EXCLUDED.created_at`,
		string(ns), key, a, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListKeys(ctx context.Context, ns constants.Namespace) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM cache_entries WHERE namespace = $1 ORDER BY key`, string(ns))
	if err != nil {
		return nil, fmt.Errorf("list namespace: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, ns constants.Namespace, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM cache_entries WHERE namespace = $1 AND key = $2`, string(ns), key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
