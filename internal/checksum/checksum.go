// Package checksum fingerprints recipe files. The fingerprint doubles as the
// HTTP entity tag used for optimistic locking on updates.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag renders sum as a strong entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// ParseETag extracts the checksum from an If-Match or ETag header value.
// Bare checksums are accepted as well as quoted and weak ("W/") tags.
func ParseETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

// Match reports whether the precondition tag holds for data. An empty tag
// or "*" always holds.
func Match(tag string, data []byte) bool {
	tag = ParseETag(tag)
	if tag == "" || tag == "*" {
		return true
	}
	return tag == Sum(data)
}
