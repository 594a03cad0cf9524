// Package apikey provides the static api-key matcher used by the gate.
// The configured key is hashed with SHA-256 at construction and compared
// in constant time; the plaintext key is not retained.
package apikey

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/rhuss/blobgate/pkg/auth"
)

// Matcher compares presented keys against a single configured key.
type Matcher struct {
	keyHash [32]byte
	enabled bool
}

// Ensure Matcher implements auth.KeyMatcher at compile time.
var _ auth.KeyMatcher = (*Matcher)(nil)

// New creates a matcher for key. An empty key yields a matcher that
// rejects everything.
func New(key string) *Matcher {
	if key == "" {
		return &Matcher{}
	}
	return &Matcher{
		keyHash: sha256.Sum256([]byte(key)),
		enabled: true,
	}
}

// Match reports whether value is exactly the configured key.
func (m *Matcher) Match(value string) bool {
	if m == nil || !m.enabled || value == "" {
		return false
	}
	valueHash := sha256.Sum256([]byte(value))
	return subtle.ConstantTimeCompare(valueHash[:], m.keyHash[:]) == 1
}
