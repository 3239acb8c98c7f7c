package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies an AEAD algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the key length every algorithm here uses.
const KeySize = 32

var (
	ErrKeySize     = errors.New("adaptive: key must be 32 bytes")
	ErrShortCipher = errors.New("adaptive: ciphertext too short")
	ErrUnknownTag  = errors.New("adaptive: unknown algorithm tag")
)

var typeTags = map[CipherType]byte{
	CipherAESGCM:   1,
	CipherChaCha20: 2,
}

// Cipher seals and opens values with associated data.
type Cipher interface {
	Type() CipherType
	Seal(plaintext, additionalData []byte) ([]byte, error)
	Open(sealed, additionalData []byte) ([]byte, error)
}

// New returns the preferred cipher for this platform.
func New(key []byte) (Cipher, error) {
	if hasAESInstructions() {
		return NewWithType(key, CipherAESGCM)
	}
	return NewWithType(key, CipherChaCha20)
}

// NewWithType returns a cipher for the given algorithm.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	c := &aeadCipher{typ: t, key: append([]byte(nil), key...)}
	aead, err := c.aeadFor(t)
	if err != nil {
		return nil, err
	}
	c.aead = aead
	return c, nil
}

func hasAESInstructions() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

// aeadCipher writes tag || nonce || ciphertext.
type aeadCipher struct {
	typ  CipherType
	key  []byte
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType {
	return c.typ
}

func (c *aeadCipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, typeTags[c.typ])
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < 1 {
		return nil, ErrShortCipher
	}

	aead := c.aead
	if sealed[0] != typeTags[c.typ] {
		t, ok := typeForTag(sealed[0])
		if !ok {
			return nil, ErrUnknownTag
		}
		var err error
		if aead, err = c.aeadFor(t); err != nil {
			return nil, err
		}
	}

	body := sealed[1:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrShortCipher
	}
	nonce, ciphertext := body[:aead.NonceSize()], body[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, additionalData)
}

func (c *aeadCipher) aeadFor(t CipherType) (cipher.AEAD, error) {
	switch t {
	case CipherAESGCM:
		block, err := aes.NewCipher(c.key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case CipherChaCha20:
		return chacha20poly1305.New(c.key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", t)
	}
}

func typeForTag(tag byte) (CipherType, bool) {
	for t, v := range typeTags {
		if v == tag {
			return t, true
		}
	}
	return "", false
}
