// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme) compliant
// serialization for deterministic hashing of VSC manifests.
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JCS returns the RFC 8785 canonical JSON representation of v.
//
// Key features:
// 1. Object members are sorted by key, recursively.
// 2. No insignificant whitespace.
// 3. Strings are emitted as raw UTF-8; HTML characters and non-ASCII are not escaped.
// 4. Numbers use the ECMAScript shortest round-trip form (1.0 becomes 1).
//
// v is first marshaled with encoding/json so struct tags and custom
// marshalers apply, then the intermediate document is transformed.
func JCS(v interface{}) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jcs: pre-marshal failed: %w", err)
	}

	out, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("jcs: transform failed: %w", err)
	}
	return out, nil
}

// HashBytes computes SHA-256 hash of raw bytes and returns lowercase hex.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
