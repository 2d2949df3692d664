package challenge

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword derives the stored digest for a password-gated challenge.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a supplied password against the stored digest in
// constant time.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(candidate)) == 1
}
