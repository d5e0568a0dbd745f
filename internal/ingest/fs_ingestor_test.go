package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/ocr"
)

type stubOCR struct {
	calls  int
	result string
	err    error
}

func (s *stubOCR) Extract(_ context.Context, _ []byte, _ string) (ocr.Result, error) {
	s.calls++
	if s.err != nil {
		return ocr.Result{}, s.err
	}
	return ocr.Result{Markdown: s.result, Pages: 1, Model: "test-ocr"}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestPathMarkdownSkipsOCR(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nda.md", "# NDA\nterms")
	o := &stubOCR{result: "unused"}
	ing := NewFSIngestor(cache.NewFSStore(t.TempDir(), nil), o, nil)

	doc, err := ing.IngestPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "nda", doc.DocumentID)
	assert.Equal(t, "# NDA\nterms", doc.Markdown)
	assert.False(t, doc.OCRCached)
	assert.Zero(t, o.calls)
}

func TestIngestPathCachesOCRByContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "msa.pdf", "%PDF-1.4 fake bytes")
	o := &stubOCR{result: "# MSA"}
	store := cache.NewFSStore(t.TempDir(), nil)
	ing := NewFSIngestor(store, o, nil)
	ctx := context.Background()

	first, err := ing.IngestPath(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "# MSA", first.Markdown)
	assert.False(t, first.OCRCached)

	// Same bytes under a different name reuse the cached OCR result.
	renamed := writeFile(t, dir, "msa-final.pdf", "%PDF-1.4 fake bytes")
	second, err := ing.IngestPath(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, "# MSA", second.Markdown)
	assert.True(t, second.OCRCached)
	assert.Equal(t, "msa-final", second.DocumentID)
	assert.Equal(t, 1, o.calls)
}

func TestIngestPathRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "plain text")
	ing := NewFSIngestor(cache.NewFSStore(t.TempDir(), nil), &stubOCR{}, nil)

	_, err := ing.IngestPath(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestIngestDirectoryFiltersAndCounts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A")
	writeFile(t, dir, "b.md", "# B")
	writeFile(t, dir, "skip.txt", "not a contract")
	writeFile(t, dir, ".hidden.md", "# hidden")
	ing := NewFSIngestor(cache.NewFSStore(t.TempDir(), nil), nil, nil)

	docs, stats, err := ing.IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(0), stats.Failed)
}

func TestIngestDirectoryIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", "# fine")
	writeFile(t, dir, "bad.pdf", "needs ocr")
	ing := NewFSIngestor(cache.NewFSStore(t.TempDir(), nil), nil, nil)

	docs, stats, err := ing.IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)

	var failed int
	for _, d := range docs {
		if d.Err != "" {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestIngestDirectoryEmptyRoot(t *testing.T) {
	ing := NewFSIngestor(cache.NewFSStore(t.TempDir(), nil), nil, nil)
	_, _, err := ing.IngestDirectory(context.Background(), "  ", false)
	require.Error(t, err)
}

func TestBatchDocumentsDropsFailures(t *testing.T) {
	docs := []Document{
		{DocumentID: "a", Markdown: "# A"},
		{SourcePath: "/tmp/b.pdf", Err: "ocr failed"},
		{DocumentID: "c", Markdown: "# C"},
	}
	got := BatchDocuments(docs)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}
