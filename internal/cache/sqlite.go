package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/a12042020/contract-analyzer/constants"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	namespace  TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	artifact   BLOB    NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
);`

// SQLiteStore persists artifacts in a single SQLite database. Pass ":memory:"
// as the path for an ephemeral store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens (and creates, if needed) the store at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent completion handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	logger.Info("cache.sqlite.open", "path", path)
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, ns constants.Namespace, key string) (Artifact, bool, error) {
	if err := checkNamespace(ns); err != nil {
		return Artifact{}, false, err
	}
	var (
		blob      []byte
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT artifact, created_at FROM cache_entries WHERE namespace = ? AND key = ?`,
		string(ns), key,
	).Scan(&blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("query cache entry: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return Artifact{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if !fresh(ns, time.Unix(createdAt, 0), s.now()) {
		s.logger.Debug("cache.sqlite.stale", "namespace", ns, "key", key)
		return Artifact{}, false, nil
	}
	return a, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, ns constants.Namespace, key string, a Artifact) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	blob, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (namespace, key, artifact, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET artifact = excluded.artifact, created_at = excluded.created_at`,
		string(ns), key, blob, a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListKeys(ctx context.Context, ns constants.Namespace) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE namespace = ? ORDER BY key`, string(ns))
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

func (s *SQLiteStore) Delete(ctx context.Context, ns constants.Namespace, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE namespace = ? AND key = ?`, string(ns), key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
