package credentials

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Hash returns base64(SHA-256(password + salt)).
func Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Verify reports whether password hashed with salt equals the stored digest.
func Verify(password, salt, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(password, salt)), []byte(digest)) == 1
}
