package constants

import (
	"path/filepath"
	"strings"
)

// FileTypes holds the allowed document types for OCR submission.
var FileTypes = []string{"PDF", "DOCX", "PPTX", "MD"}

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"pptx": {},
	"md":   {},
}

// MimeTypes maps normalized extensions to the MIME type sent to the OCR service.
var MimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"md":   "text/markdown",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// DocumentID derives the stable short name used as a document identifier:
// the source file's base name without its extension.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
