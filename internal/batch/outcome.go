// Package batch fans documents out to the extraction service, consults the
// cache store first, isolates per-document failures, and aggregates outcomes
// and statistics for one batch invocation.
package batch

import (
	"context"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
)

// Document pairs a stable identifier (derived from the source file name, not
// content) with the document text. Owned by the caller for the duration of
// one batch call.
type Document struct {
	ID      string
	Content string
}

// Outcome is the result of processing one document. Exactly one Outcome is
// produced per input document per batch call.
type Outcome struct {
	DocumentID string
	Status     constants.OutcomeStatus
	// Artifact is set for CACHE_HIT and COMPUTED outcomes.
	Artifact cache.Artifact
	// Err is the failure message for FAILED outcomes.
	Err string
	// PersistErr reports a cache write that failed after a successful
	// extraction. The artifact is still valid; the next run recomputes it.
	PersistErr string
}

// Extractor is the external extraction collaborator. It must be safely
// invokable many times concurrently; latency and failure are unspecified.
type Extractor interface {
	Extract(ctx context.Context, content string) (cache.Artifact, error)
}
