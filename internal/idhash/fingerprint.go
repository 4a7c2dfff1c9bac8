// Package idhash computes deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"strategy-lab/internal/domain"
)

// SpecFingerprint computes a deterministic identifier for a strategy
// specification: SHA256 over its canonical JSON encoding. Returns a
// hex-encoded hash (64 characters). Two specs with identical logic hash
// identically regardless of where they were generated.
func SpecFingerprint(spec *domain.StrategySpecification) string {
	data, err := json.Marshal(spec)
	if err != nil {
		// json.Marshal cannot fail for this struct shape; hash the
		// name so callers still get a stable, non-empty key.
		data = []byte(spec.Name)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
