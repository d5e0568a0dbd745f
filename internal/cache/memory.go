package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/a12042020/contract-analyzer/constants"
)

// LRUStore is a bounded in-process read-through front over another Store.
// It only shortcuts reads; all writes and deletes go to the backing store.
type LRUStore struct {
	inner Store
	lru   *lru.Cache[string, Artifact]
	now   func() time.Time
}

// NewLRUStore wraps inner with an LRU holding up to size artifacts.
func NewLRUStore(inner Store, size int) (*LRUStore, error) {
	c, err := lru.New[string, Artifact](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRUStore{inner: inner, lru: c, now: time.Now}, nil
}

func lruKey(ns constants.Namespace, key string) string {
	return string(ns) + "/" + key
}

func (s *LRUStore) Get(ctx context.Context, ns constants.Namespace, key string) (Artifact, bool, error) {
	if a, ok := s.lru.Get(lruKey(ns, key)); ok {
		if fresh(ns, a.CreatedAt, s.now()) {
			return a, true, nil
		}
		s.lru.Remove(lruKey(ns, key))
	}
	a, ok, err := s.inner.Get(ctx, ns, key)
	if err != nil || !ok {
		return Artifact{}, false, err
	}
	s.lru.Add(lruKey(ns, key), a)
	return a, true, nil
}

func (s *LRUStore) Put(ctx context.Context, ns constants.Namespace, key string, a Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if err := s.inner.Put(ctx, ns, key, a); err != nil {
		return err
	}
	s.lru.Add(lruKey(ns, key), a)
	return nil
}

func (s *LRUStore) ListKeys(ctx context.Context, ns constants.Namespace) ([]string, error) {
	return s.inner.ListKeys(ctx, ns)
}

func (s *LRUStore) Delete(ctx context.Context, ns constants.Namespace, key string) error {
	s.lru.Remove(lruKey(ns, key))
	return s.inner.Delete(ctx, ns, key)
}
