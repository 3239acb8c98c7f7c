package benchmark

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/internal/storage/memory"
	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
	"github.com/yndnr/minisocial-go/pkg/token"
)

// engineFactories opens each engine in a fresh temp directory.
var engineFactories = []struct {
	name string
	open func(b *testing.B) storage.KVEngine
}{
	{"memory", func(b *testing.B) storage.KVEngine {
		return memory.New()
	}},
	{"file", func(b *testing.B) storage.KVEngine {
		e, err := storage.NewFileEngine(filepath.Join(b.TempDir(), "session.json"))
		if err != nil {
			b.Fatalf("open file engine: %v", err)
		}
		return e
	}},
	{"badger", func(b *testing.B) storage.KVEngine {
		e, err := storage.NewBadgerEngine(filepath.Join(b.TempDir(), "badger"),
			storage.WithGCInterval(0),
			storage.WithSyncWrites(false),
			storage.WithBadgerLogger(logger.Slog(logger.Discard())),
		)
		if err != nil {
			b.Fatalf("open badger engine: %v", err)
		}
		return e
	}},
}

func openEngine(b *testing.B, open func(b *testing.B) storage.KVEngine) storage.KVEngine {
	b.Helper()
	e := open(b)
	b.Cleanup(func() { _ = e.Close() })
	return e
}

func newCipher(b *testing.B, t adaptive.CipherType) adaptive.Cipher {
	b.Helper()
	key, err := token.GenerateBytes(adaptive.KeySize)
	if err != nil {
		b.Fatal(err)
	}
	c, err := adaptive.NewWithType(key, t)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

// newPair returns a token pair with random opaque tokens.
func newPair(b *testing.B) domain.TokenPair {
	b.Helper()
	access, err := token.Generate()
	if err != nil {
		b.Fatal(err)
	}
	refresh, err := token.Generate()
	if err != nil {
		b.Fatal(err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}
}

// prefillNamespaces stores a pair in count namespaces.
func prefillNamespaces(b *testing.B, engine storage.KVEngine, count int) {
	b.Helper()
	for i := 0; i < count; i++ {
		s := storage.NewTokenStore(engine, storage.WithNamespace(fmt.Sprintf("profile-%d", i)))
		if err := s.Save(newPair(b)); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
}
