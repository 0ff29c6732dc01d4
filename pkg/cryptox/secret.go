package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateSecret creates a cryptographically secure random secret of the
// given byte length, returned base64url encoded (URL-safe, no padding).
// 32 bytes gives 256 bits of entropy which is what you want for HMAC
// signing material.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint returns a deterministic SHA-256 fingerprint of a secret or
// token, base64url encoded. Log the fingerprint, never the value.
func Fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
