package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashToken returns the hex SHA-256 digest of a refresh token. The digest is
// deterministic so the store can compare-and-set on it.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches reports whether token hashes to stored, in constant time.
func TokenMatches(token, stored string) bool {
	got := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}
