package adaptive

import (
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for passphrase-derived keys.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	// SaltLength is the salt size DeriveKey expects.
	SaltLength = 16
	// MinPassphraseLength rejects trivially guessable passphrases.
	MinPassphraseLength = 8
)

var (
	ErrPassphraseTooWeak = errors.New("adaptive: passphrase must be at least 8 characters")
	ErrSaltLength        = errors.New("adaptive: salt must be 16 bytes")
)

// DeriveKey stretches a passphrase into a KeySize key with Argon2id.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	if len(salt) != SaltLength {
		return nil, ErrSaltLength
	}
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, KeySize), nil
}
