package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/fingerprint"
	"github.com/a12042020/contract-analyzer/internal/ocr"
)

// SchemaOCRText is the schema tag for cached OCR output in the resource namespace.
const SchemaOCRText = "ocr_text"

// ocrPayload is the JSON shape persisted for one OCR result.
type ocrPayload struct {
	Markdown string `json:"markdown"`
	Pages    int    `json:"pages"`
	Model    string `json:"model,omitempty"`
}

// FSIngestor reads documents from the local filesystem.
type FSIngestor struct {
	Store  cache.Store
	OCR    ocr.Extractor
	logger *slog.Logger
}

func NewFSIngestor(store cache.Store, ocrExtractor ocr.Extractor, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Store:  store,
		OCR:    ocrExtractor,
		logger: logger,
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Document, error) {
	var out Document

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", abs, err)
	}

	out = Document{
		SourcePath:  abs,
		DocumentID:  constants.DocumentID(abs),
		FileExt:     ext,
		Fingerprint: fingerprint.File(data),
	}

	// Markdown ingests as-is; everything else goes through OCR.
	if ext == "md" {
		out.Markdown = string(data)
		return out, nil
	}

	markdown, cached, err := i.ocrText(ctx, out.DocumentID, out.Fingerprint.String(), data, constants.MimeTypes[ext])
	if err != nil {
		return out, err
	}
	out.Markdown = markdown
	out.OCRCached = cached
	return out, nil
}

// ocrText returns the markdown for one document, consulting the resource
// cache before calling the OCR service.
func (i *FSIngestor) ocrText(ctx context.Context, documentID, key string, data []byte, mimeType string) (string, bool, error) {
	a, ok, err := i.Store.Get(ctx, constants.NamespaceResource, key)
	if err != nil {
		i.logger.Warn("ingest.cache.read_error", "document_id", documentID, "error", err)
	}
	if ok {
		var p ocrPayload
		if err := json.Unmarshal(a.Data, &p); err == nil {
			return p.Markdown, true, nil
		}
	}

	if i.OCR == nil {
		return "", false, errors.New("no OCR extractor configured")
	}
	res, err := i.OCR.Extract(ctx, data, mimeType)
	if err != nil {
		return "", false, fmt.Errorf("ocr %s: %w", documentID, err)
	}

	payload, err := json.Marshal(ocrPayload{Markdown: res.Markdown, Pages: res.Pages, Model: res.Model})
	if err != nil {
		return "", false, fmt.Errorf("encode ocr payload: %w", err)
	}
	artifact := cache.Artifact{DocumentID: documentID, Schema: SchemaOCRText, Data: payload}
	if err := i.Store.Put(ctx, constants.NamespaceResource, key, artifact); err != nil {
		i.logger.Warn("ingest.cache.write_error", "document_id", documentID, "error", err)
	}
	return res.Markdown, false, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each matching file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Document
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Document{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			return nil
		}
		stats.Matched++

		doc, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, Document{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, doc)
		stats.Succeeded++
		if doc.OCRCached {
			stats.CacheHits++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
