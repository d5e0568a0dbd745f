package constants

import "time"

// Namespace scopes cache entries by artifact kind. Each namespace has its own
// keying scheme and invalidation rules, so entries never cross namespaces.
type Namespace string

// Stable values (used as directory/table/key prefixes in stores).
const (
	// NamespaceResource holds OCR output keyed by the raw-file content hash.
	// Identical bytes always yield identical text, so entries never expire.
	NamespaceResource Namespace = "resource"
	// NamespaceExtraction holds extracted contract fields keyed by the
	// normalized-text content hash. Window-bounded: the extraction model or
	// prompt may change.
	NamespaceExtraction Namespace = "extraction"
	// NamespaceDerived holds summaries and policy analyses keyed by a
	// fingerprint over all upstream artifacts, so it invalidates whenever any
	// input changes.
	NamespaceDerived Namespace = "derived"
)

// FreshnessWindow returns how long an entry in the namespace stays valid.
// Zero means entries never expire.
func (n Namespace) FreshnessWindow() time.Duration {
	switch n {
	case NamespaceExtraction:
		return time.Hour
	case NamespaceDerived:
		return 30 * time.Minute
	default:
		return 0
	}
}

// Valid reports whether n is a known namespace.
func (n Namespace) Valid() bool {
	switch n {
	case NamespaceResource, NamespaceExtraction, NamespaceDerived:
		return true
	}
	return false
}
