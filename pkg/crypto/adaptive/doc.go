// Package adaptive provides AEAD encryption with hardware-aware algorithm
// selection, used to keep stored session tokens unreadable at rest.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred on amd64/arm64, which have AES instructions
//   - ChaCha20-Poly1305: fallback elsewhere
//
// Sealed values embed a one-byte algorithm tag and the nonce, so Open
// works regardless of which algorithm sealed the value as long as the key
// is the same.
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Seal(plaintext, aad)
//	plaintext, err := c.Open(sealed, aad)
package adaptive
