package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns an opaque random token, optionally namespaced with a
// prefix. Database IDs use UUIDs; this is for refresh tokens and blob keys.
func NewToken(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
