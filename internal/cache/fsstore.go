package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a12042020/contract-analyzer/constants"
)

// FSStore persists one JSON artifact per key under <root>/<namespace>/.
type FSStore struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewFSStore creates a filesystem-backed store rooted at dir.
func NewFSStore(dir string, logger *slog.Logger) *FSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{root: dir, logger: logger, now: time.Now}
}

func (s *FSStore) entryPath(ns constants.Namespace, key string) string {
	return filepath.Join(s.root, string(ns), key+".json")
}

func (s *FSStore) Get(_ context.Context, ns constants.Namespace, key string) (Artifact, bool, error) {
	if err := checkNamespace(ns); err != nil {
		return Artifact{}, false, err
	}
	data, err := os.ReadFile(s.entryPath(ns, key))
	if err != nil {
		if os.IsNotExist(err) {
			return Artifact{}, false, nil
		}
		return Artifact{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if !fresh(ns, a.CreatedAt, s.now()) {
		s.logger.Debug("cache.fs.stale", "namespace", ns, "key", key, "created_at", a.CreatedAt)
		return Artifact{}, false, nil
	}
	return a, true, nil
}

func (s *FSStore) Put(_ context.Context, ns constants.Namespace, key string, a Artifact) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	dir := filepath.Join(s.root, string(ns))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create namespace dir: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves a partial
	// entry at the canonical path.
	tmp, err := os.CreateTemp(dir, "tmp-"+key+"-")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.entryPath(ns, key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

func (s *FSStore) ListKeys(_ context.Context, ns constants.Namespace) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, string(ns)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list namespace: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

func (s *FSStore) Delete(_ context.Context, ns constants.Namespace, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if err := os.Remove(s.entryPath(ns, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
