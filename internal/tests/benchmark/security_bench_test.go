package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
	"github.com/yndnr/minisocial-go/pkg/token"
)

var cipherTypes = []adaptive.CipherType{adaptive.CipherAESGCM, adaptive.CipherChaCha20}

// BenchmarkCipherSeal measures sealing a token-sized value.
func BenchmarkCipherSeal(b *testing.B) {
	for _, ct := range cipherTypes {
		for _, size := range []int{64, 256, 1024} {
			b.Run(fmt.Sprintf("%s/%s", ct, sizeLabel(size)), func(b *testing.B) {
				c := newCipher(b, ct)
				data, _ := token.GenerateBytes(size)
				ad := []byte("session/default/access_token")

				b.ResetTimer()
				b.ReportAllocs()
				b.SetBytes(int64(size))

				for i := 0; i < b.N; i++ {
					if _, err := c.Seal(data, ad); err != nil {
						b.Fatalf("Seal failed: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkCipherOpen measures opening a sealed value.
func BenchmarkCipherOpen(b *testing.B) {
	for _, ct := range cipherTypes {
		for _, size := range []int{64, 256, 1024} {
			b.Run(fmt.Sprintf("%s/%s", ct, sizeLabel(size)), func(b *testing.B) {
				c := newCipher(b, ct)
				data, _ := token.GenerateBytes(size)
				ad := []byte("session/default/access_token")
				sealed, err := c.Seal(data, ad)
				if err != nil {
					b.Fatalf("Seal failed: %v", err)
				}

				b.ResetTimer()
				b.ReportAllocs()
				b.SetBytes(int64(size))

				for i := 0; i < b.N; i++ {
					if _, err := c.Open(sealed, ad); err != nil {
						b.Fatalf("Open failed: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkCipherParallel runs seal and open from many goroutines.
func BenchmarkCipherParallel(b *testing.B) {
	c := newCipher(b, adaptive.CipherAESGCM)
	data, _ := token.GenerateBytes(256)

	b.ResetTimer()
	b.SetBytes(256)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sealed, err := c.Seal(data, nil)
			if err != nil {
				b.Errorf("Seal failed: %v", err)
				return
			}
			if _, err := c.Open(sealed, nil); err != nil {
				b.Errorf("Open failed: %v", err)
				return
			}
		}
	})
}

// BenchmarkKeyDerivation measures the passphrase KDF run once per command.
func BenchmarkKeyDerivation(b *testing.B) {
	salt, _ := token.GenerateBytes(16)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := adaptive.DeriveKey([]byte("correct horse battery staple"), salt); err != nil {
			b.Fatalf("DeriveKey failed: %v", err)
		}
	}
}

// BenchmarkTokenFingerprint measures the digest shown by auth status.
func BenchmarkTokenFingerprint(b *testing.B) {
	tokens := make([]string, 1000)
	for i := range tokens {
		tokens[i], _ = token.Generate()
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		token.Fingerprint(tokens[i%len(tokens)])
	}
}

// BenchmarkTokenGenerate measures random token generation.
func BenchmarkTokenGenerate(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := token.Generate(); err != nil {
			b.Fatalf("Generate failed: %v", err)
		}
	}
}

// sizeLabel returns a human-readable size label.
func sizeLabel(size int) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%dMB", size/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%dKB", size/1024)
	default:
		return fmt.Sprintf("%dB", size)
	}
}
