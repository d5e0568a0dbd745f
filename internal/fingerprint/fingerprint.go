// Package fingerprint derives deterministic content-addressed cache keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint is an opaque fixed-length digest string used as a cache key.
// It identifies content, never authenticates it.
type Fingerprint string

// String returns the string representation of the Fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Parts computes a Fingerprint over one or more content strings.
//
// Each part is length-prefixed before hashing, so ("ab","c") and ("a","bc")
// produce distinct digests regardless of content. Deterministic: identical
// parts always yield the identical fingerprint. Always succeeds, including
// for the empty input.
func Parts(parts ...string) Fingerprint {
	h := sha256.New()
	var prefix [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(p)))
		h.Write(prefix[:])
		h.Write([]byte(p))
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// File computes the resource-cache key for raw file bytes.
func File(data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Content computes the extraction-cache key for normalized document text.
func Content(text string) Fingerprint {
	return Parts(text)
}

// Derived computes a derived-cache key over multiple upstream artifacts,
// e.g. extracted fields plus a reference policy. Changing any input changes
// the key, which is what invalidates stale derived results.
func Derived(parts ...string) Fingerprint {
	return Parts(parts...)
}
