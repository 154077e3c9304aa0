package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey builds a fixed-length cache key by SHA256-hashing the joined
// parts. Use it when key material is long or contains arbitrary user
// input, such as embedding inputs keyed by model and text.
func HashKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}
