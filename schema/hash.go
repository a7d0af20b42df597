package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"github.com/stackforge/typesync/errors"
)

// Fingerprint is a short deterministic hash of a normalized schema, used as
// the cache key.
type Fingerprint string

// FingerprintLength is the number of hex characters kept from the digest.
const FingerprintLength = 16

// volatileKeys are document fields that change between otherwise identical
// extractions and must not influence the fingerprint.
var volatileKeys = map[string]bool{
	"x-generated-at":  true,
	"x-extracted-at":  true,
	"x-generation-id": true,
}

// hostPortPattern matches a URL whose host carries an explicit port. Dev
// servers restart on ephemeral ports, so the port is templated away before
// hashing.
var hostPortPattern = regexp.MustCompile(`^(https?://[^:/]+):\d+`)

// Hash computes the fingerprint of a document.
//
// The document is deep-copied, volatile fields are stripped, server URLs
// with explicit ports are templated to a placeholder, and the result is
// encoded as canonical JSON (encoding/json sorts map keys recursively, so
// field order in independently produced documents is irrelevant) and pushed
// through SHA-256 truncated to FingerprintLength hex characters.
//
// Two schemas differing only in volatile fields hash identically.
func Hash(doc Document) (Fingerprint, error) {
	if doc == nil {
		return "", errors.New("cannot hash nil schema document")
	}

	normalized := doc.Clone()
	normalizeMap(normalized)

	data, err := normalized.Bytes()
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize normalized schema")
	}

	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:])[:FingerprintLength]), nil
}

// Normalize returns the normalized form of a document without hashing it.
// Exposed for tests and debugging.
func Normalize(doc Document) Document {
	normalized := doc.Clone()
	normalizeMap(normalized)
	return normalized
}

func normalizeMap(m map[string]interface{}) {
	for k, v := range m {
		if volatileKeys[k] {
			delete(m, k)
			continue
		}
		m[k] = normalizeValue(v)
	}
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		normalizeMap(val)
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	case string:
		return templatePort(val)
	default:
		return val
	}
}

// templatePort replaces an explicit port in a URL string with a placeholder:
// "http://localhost:8000/api" -> "http://localhost:{port}/api".
func templatePort(s string) string {
	return hostPortPattern.ReplaceAllString(s, "${1}:{port}")
}
