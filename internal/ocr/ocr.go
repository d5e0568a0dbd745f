// Package ocr defines the boundary to the external OCR service that converts
// document bytes (PDF/DOCX/PPTX) to markdown text.
package ocr

import (
	"context"
	"time"
)

// Result is the outcome of one OCR call.
type Result struct {
	Markdown string // page markdown joined with blank lines
	Pages    int
	Model    string
	Duration time.Duration
}

// Extractor converts raw document bytes to markdown. Implementations must be
// safe for concurrent use. Callers cache results in the resource namespace
// keyed by the file-bytes fingerprint, so identical bytes are sent at most once.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (Result, error)
}
