// Package id mints opaque identifiers for background jobs.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewID32 returns exactly 32 lowercase hex characters.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Prefixed returns "<prefix>_<32 hex>", e.g. "imp_4f0c...".
func Prefixed(prefix string) string {
	return prefix + "_" + NewID32()
}

// Valid reports whether s was produced by Prefixed(prefix).
func Valid(prefix, s string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok || len(rest) != 32 {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
