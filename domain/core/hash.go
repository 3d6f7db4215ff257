package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// headerSeparator joins header names; it cannot appear in a typed header.
const headerSeparator = "\x01"

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// HeaderFingerprint keys persisted column-mapping preferences.
type HeaderFingerprint Hash

func (h HeaderFingerprint) String() string { return Hash(h).String() }

// CanonicalHeaders returns the sorted, joined representation of a header set.
// Order and duplicates in the input do not matter.
func CanonicalHeaders(headers []string) string {
	seen := make(map[string]bool, len(headers))
	sorted := make([]string, 0, len(headers))
	for _, h := range headers {
		if seen[h] {
			continue
		}
		seen[h] = true
		sorted = append(sorted, h)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, headerSeparator)
}

// ComputeHeaderFingerprint hashes the canonical header representation
func ComputeHeaderFingerprint(headers []string) HeaderFingerprint {
	return HeaderFingerprint(NewHash([]byte(CanonicalHeaders(headers))))
}
