package common

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a12042020/contract-analyzer/internal/cache"
)

// StoreResult bundles the configured store with its cleanup hook.
type StoreResult struct {
	Store   cache.Store
	Cleanup func()
}

// InitStore builds the cache store selected by CACHE_BACKEND and wraps it in
// an LRU front when CACHE_LRU_SIZE is positive. Callers must run Cleanup.
func InitStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*StoreResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var store cache.Store
	cleanup := func() {}

	switch cfg.Cache.Backend {
	case "fs":
		store = cache.NewFSStore(cfg.Cache.Dir, logger)
	case "sqlite":
		s, err := cache.OpenSQLite(ctx, cfg.Cache.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger.Warn("store.close_error", "error", err)
			}
		}
	case "postgres":
		s, err := cache.OpenPostgres(ctx, cache.PostgresConfig{DSN: cfg.Cache.PostgresDSN}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		store = s
		cleanup = s.Close
	default:
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown cache backend %q", cfg.Cache.Backend), ErrInvalidInput)
	}

	if cfg.Cache.LRUSize > 0 {
		wrapped, err := cache.NewLRUStore(store, cfg.Cache.LRUSize)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("wrap lru store: %w", err)
		}
		store = wrapped
	}

	logger.Info("store.ready", "backend", cfg.Cache.Backend, "lru_size", cfg.Cache.LRUSize)
	return &StoreResult{Store: store, Cleanup: cleanup}, nil
}
