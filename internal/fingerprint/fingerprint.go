// Package fingerprint computes deterministic digests of case record sets.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/expdynts/expwatch/internal/domain"
)

// Sum returns the hex-encoded SHA-256 digest of the record set.
//
// The record set is serialized to canonical JSON before hashing:
// encoding/json emits struct fields in declaration order, so identical
// field values in identical entry order always produce the same bytes.
// Used as a cheap equality check before running the structural diff.
func Sum(entries []domain.CaseEntry) string {
	if entries == nil {
		entries = []domain.CaseEntry{}
	}

	// Marshal of a slice of plain structs cannot fail.
	data, _ := json.Marshal(entries)

	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}
