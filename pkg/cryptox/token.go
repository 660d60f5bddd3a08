package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Secret size constants (in bytes before encoding).
const (
	// SecretSize128 provides 128 bits of entropy (22 chars base64url).
	SecretSize128 = 16
	// SecretSize192 provides 192 bits of entropy (32 chars base64url).
	// This is the size used for API key secrets.
	SecretSize192 = 24
	// SecretSize256 provides 256 bits of entropy (43 chars base64url).
	SecretSize256 = 32
)

// GenerateSecret creates a cryptographically secure random secret of the
// specified byte length, returned as a base64url string (URL-safe, no
// padding). Returns an error if the random number generator fails.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateSecret is like GenerateSecret but panics on error.
// Use this only during initialization or in contexts where failure is
// unrecoverable.
func MustGenerateSecret(size int) string {
	secret, err := GenerateSecret(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate secret: %v", err))
	}
	return secret
}

// Fingerprint returns a deterministic SHA-256 fingerprint of a secret.
// Secrets are stored in the database only as fingerprints, which allows
// exact-match lookup without ever persisting the plaintext value.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
