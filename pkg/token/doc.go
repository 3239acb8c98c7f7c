// Package token provides random secret generation and fingerprinting.
//
// Secrets come from crypto/rand. Fingerprints are truncated SHA-256 hex
// digests, safe to print where the secret itself must not appear.
package token
