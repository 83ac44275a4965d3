// Package credential hashes and verifies account passwords.
//
// The digest is an unsalted SHA-256, base64 encoded, so existing stored
// hashes keep verifying. Identical passwords produce identical digests.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Hash returns the digest stored for password.
func Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Verify reports whether password hashes to digest.
func Verify(password, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(password)), []byte(digest)) == 1
}
