package benchmark

import (
	"testing"

	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
)

// BenchmarkTokenStore_Save measures persisting a pair on each engine.
func BenchmarkTokenStore_Save(b *testing.B) {
	for _, f := range engineFactories {
		b.Run(f.name, func(b *testing.B) {
			s := storage.NewTokenStore(openEngine(b, f.open))
			pair := newPair(b)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.Save(pair); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkTokenStore_Load measures the read done before every request.
func BenchmarkTokenStore_Load(b *testing.B) {
	for _, f := range engineFactories {
		b.Run(f.name, func(b *testing.B) {
			s := storage.NewTokenStore(openEngine(b, f.open))
			if err := s.Save(newPair(b)); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, ok := s.Load(); !ok {
					b.Fatal("pair not found")
				}
			}
		})
	}
}

// BenchmarkTokenStore_Encrypted compares sealed storage across ciphers.
func BenchmarkTokenStore_Encrypted(b *testing.B) {
	ciphers := []adaptive.CipherType{adaptive.CipherAESGCM, adaptive.CipherChaCha20}
	for _, ct := range ciphers {
		b.Run(string(ct)+"/Save", func(b *testing.B) {
			s := storage.NewTokenStore(openEngine(b, engineFactories[0].open),
				storage.WithCipher(newCipher(b, ct)))
			pair := newPair(b)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.Save(pair); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(string(ct)+"/Load", func(b *testing.B) {
			s := storage.NewTokenStore(openEngine(b, engineFactories[0].open),
				storage.WithCipher(newCipher(b, ct)))
			if err := s.Save(newPair(b)); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, ok := s.Load(); !ok {
					b.Fatal("pair not found")
				}
			}
		})
	}
}

// BenchmarkTokenStore_Namespaces measures the scan behind logout --all.
func BenchmarkTokenStore_Namespaces(b *testing.B) {
	for _, f := range engineFactories {
		b.Run(f.name, func(b *testing.B) {
			engine := openEngine(b, f.open)
			prefillNamespaces(b, engine, 32)
			s := storage.NewTokenStore(engine)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ns, err := s.Namespaces()
				if err != nil {
					b.Fatal(err)
				}
				if len(ns) != 32 {
					b.Fatalf("got %d namespaces", len(ns))
				}
			}
		})
	}
}
