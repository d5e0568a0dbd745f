// Package ingest discovers contract documents on the local filesystem and
// turns them into markdown ready for field extraction. OCR output is cached
// in the resource namespace, keyed by a fingerprint of the raw bytes, so a
// renamed or re-uploaded file never pays for OCR twice.
package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/batch"
	"github.com/a12042020/contract-analyzer/internal/fingerprint"
)

// Document is the per-file ingest outcome.
type Document struct {
	SourcePath  string
	DocumentID  string
	FileExt     string
	Fingerprint fingerprint.Fingerprint
	Markdown    string
	OCRCached   bool
	Err         string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	CacheHits uint32
	Failed    uint32
}

// Ingestor is the behavior callers depend on.
type Ingestor interface {
	// IngestPath prepares a single document.
	IngestPath(ctx context.Context, path string) (Document, error)
	// IngestDirectory prepares all matching documents under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error)
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// BatchDocuments converts successful ingest results into batch inputs,
// dropping entries that failed to ingest.
func BatchDocuments(docs []Document) []batch.Document {
	out := make([]batch.Document, 0, len(docs))
	for _, d := range docs {
		if d.Err != "" {
			continue
		}
		out = append(out, batch.Document{ID: d.DocumentID, Content: d.Markdown})
	}
	return out
}
