// Package cache persists typed artifacts keyed by content fingerprint,
// scoped by namespace so artifact kinds with different invalidation rules
// never collide.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/a12042020/contract-analyzer/constants"
)

// Artifact is a serialized result stored under a fingerprint or document id.
// The store treats Data as opaque; Schema names the registry entry that can
// decode and validate it.
type Artifact struct {
	DocumentID string          `json:"document_id,omitempty"`
	Schema     string          `json:"schema,omitempty"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store is the cache adapter boundary. A miss is an expected outcome and is
// reported as ok=false, never as an error.
type Store interface {
	// Get returns the artifact under (ns, key), or ok=false when absent or
	// stale per the namespace freshness window.
	Get(ctx context.Context, ns constants.Namespace, key string) (Artifact, bool, error)
	// Put stores the artifact under (ns, key), overwriting any prior entry.
	Put(ctx context.Context, ns constants.Namespace, key string, a Artifact) error
	// ListKeys enumerates the keys currently present in the namespace.
	ListKeys(ctx context.Context, ns constants.Namespace) ([]string, error)
	// Delete removes the entry under (ns, key). Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, ns constants.Namespace, key string) error
}

// fresh reports whether an entry created at createdAt is still valid for the
// namespace at time now. Namespaces with a zero window never expire.
func fresh(ns constants.Namespace, createdAt, now time.Time) bool {
	window := ns.FreshnessWindow()
	if window == 0 {
		return true
	}
	return now.Sub(createdAt) <= window
}

func checkNamespace(ns constants.Namespace) error {
	if !ns.Valid() {
		return fmt.Errorf("unknown cache namespace %q", ns)
	}
	return nil
}
