package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// DefaultLength is the default number of random bytes.
const DefaultLength = 32

// FingerprintLength is the number of hex characters in a fingerprint.
const FingerprintLength = 12

// Generate returns DefaultLength random bytes, Base64 RawURL encoded.
func Generate() (string, error) {
	b, err := GenerateBytes(DefaultLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes returns length random bytes.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Hash returns the hex SHA-256 digest of s.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short, stable identifier for a secret. Empty input
// yields an empty fingerprint.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	return Hash(secret)[:FingerprintLength]
}

// Verify compares s against an expected hex digest in constant time.
func Verify(s, expectedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(s)), []byte(expectedHash)) == 1
}
