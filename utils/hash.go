package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIP generates a keyed SHA256 hash of a client IP. The raw IP is never
// persisted; the server-side salt keeps the hash from being reversible by
// enumeration.
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(ip + salt))
	return hex.EncodeToString(hash[:])
}
