package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/internal/storage/memory"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
)

var pair = domain.TokenPair{AccessToken: "A", RefreshToken: "R"}

func TestTokenStore_SaveLoad(t *testing.T) {
	store := storage.NewTokenStore(memory.New())

	if _, ok := store.Load(); ok {
		t.Fatal("Load on empty store should report absent")
	}
	if store.IsAuthenticated() {
		t.Fatal("empty store should not be authenticated")
	}
	if store.State() != domain.Anonymous {
		t.Errorf("State = %v", store.State())
	}

	if err := store.Save(pair); err != nil {
		t.Fatal(err)
	}
	got, ok := store.Load()
	if !ok || got != pair {
		t.Errorf("Load = %+v, %v", got, ok)
	}
	if !store.IsAuthenticated() || store.State() != domain.Authenticated {
		t.Error("store should be authenticated after Save")
	}

	next := domain.TokenPair{AccessToken: "A2", RefreshToken: "R2"}
	store.Save(next)
	if got, _ := store.Load(); got != next {
		t.Errorf("Save should overwrite, got %+v", got)
	}
}

func TestTokenStore_Clear(t *testing.T) {
	store := storage.NewTokenStore(memory.New())
	store.Save(pair)

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Load(); ok {
		t.Error("Load after Clear should report absent")
	}
	if store.IsAuthenticated() {
		t.Error("not authenticated after Clear")
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear on empty store = %v", err)
	}
}

func TestTokenStore_EmptyAccessToken(t *testing.T) {
	store := storage.NewTokenStore(memory.New())
	store.Save(domain.TokenPair{RefreshToken: "R"})

	if store.IsAuthenticated() {
		t.Error("empty access token must not count as authenticated")
	}
}

func TestTokenStore_LoadMissingRefresh(t *testing.T) {
	engine := memory.New()
	engine.Set(context.Background(), []byte("session/default/access_token"), []byte("A"))
	store := storage.NewTokenStore(engine)

	if _, ok := store.Load(); ok {
		t.Error("Load should be absent when the refresh token is missing")
	}
	if !store.IsAuthenticated() {
		t.Error("IsAuthenticated only looks at the access token")
	}
}

func TestTokenStore_SaveRollsBackOnPartialWrite(t *testing.T) {
	engine := memory.New()
	store := storage.NewTokenStore(engine)

	boom := errors.New("disk full")
	engine.FailSetWith(func(key []byte) error {
		if filepath.Base(string(key)) == "refresh_token" {
			return boom
		}
		return nil
	})

	if err := store.Save(pair); !errors.Is(err, boom) {
		t.Fatalf("Save err = %v, want %v", err, boom)
	}
	if engine.Len() != 0 {
		t.Errorf("partial write left %d keys", engine.Len())
	}
	if store.IsAuthenticated() {
		t.Error("failed Save must not authenticate")
	}
}

func TestTokenStore_Namespaces(t *testing.T) {
	engine := memory.New()
	work := storage.NewTokenStore(engine, storage.WithNamespace("work"))
	home := storage.NewTokenStore(engine, storage.WithNamespace("home"))

	work.Save(pair)
	if home.IsAuthenticated() {
		t.Error("namespaces must be isolated")
	}
	home.Save(pair)

	names, err := work.Namespaces()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "home" || names[1] != "work" {
		t.Errorf("Namespaces = %v", names)
	}
	if storage.NewTokenStore(engine, storage.WithNamespace("")).Namespace() != storage.DefaultNamespace {
		t.Error("empty namespace should fall back to default")
	}
}

func TestTokenStore_Encrypted(t *testing.T) {
	key := make([]byte, adaptive.KeySize)
	c, err := adaptive.New(key)
	if err != nil {
		t.Fatal(err)
	}

	engine := memory.New()
	store := storage.NewTokenStore(engine, storage.WithCipher(c))
	if err := store.Save(pair); err != nil {
		t.Fatal(err)
	}

	raw, _ := engine.Get(context.Background(), []byte("session/default/access_token"))
	if string(raw) == "A" {
		t.Error("access token stored in plaintext")
	}

	got, ok := store.Load()
	if !ok || got != pair {
		t.Errorf("Load = %+v, %v", got, ok)
	}

	plain := storage.NewTokenStore(engine)
	if _, ok := plain.Load(); ok {
		t.Error("a store without the key cannot read sealed tokens")
	}
	if plain.IsAuthenticated() {
		t.Error("unreadable token must not authenticate")
	}
}

func TestTokenStore_PlaintextReadableWithCipher(t *testing.T) {
	engine := memory.New()
	storage.NewTokenStore(engine).Save(pair)

	c, _ := adaptive.New(make([]byte, adaptive.KeySize))
	got, ok := storage.NewTokenStore(engine, storage.WithCipher(c)).Load()
	if !ok || got != pair {
		t.Errorf("Load = %+v, %v", got, ok)
	}
}

func TestTokenStore_FileEngine(t *testing.T) {
	engine, err := storage.NewFileEngine(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	storage.NewTokenStore(engine).Save(pair)

	reopened, _ := storage.NewFileEngine(engine.Path())
	got, ok := storage.NewTokenStore(reopened).Load()
	if !ok || got != pair {
		t.Errorf("Load after reopen = %+v, %v", got, ok)
	}
}

func TestTokenStore_RecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
		t.Fatal(err)
	}
	engine, _ := storage.NewFileEngine(path)
	store := storage.NewTokenStore(engine)

	if _, ok := store.Load(); ok {
		t.Fatal("Load on a corrupt file should report absent")
	}
	if err := store.Save(pair); err != nil {
		t.Fatalf("Save over a corrupt file: %v", err)
	}
	if got, ok := store.Load(); !ok || got != pair {
		t.Errorf("Load = %+v, %v", got, ok)
	}

	os.WriteFile(path, []byte("{truncated"), 0o600)
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear over a corrupt file: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("not authenticated after Clear")
	}
}

func TestTokenStore_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	store := storage.NewTokenStore(memory.New(), storage.WithMetrics(reg))
	store.Save(pair)
	store.Load()
	store.Clear()

	if got := testutil.ToFloat64(reg.TokenStoreOps.WithLabelValues("save", "ok")); got != 1 {
		t.Errorf("save ok = %v", got)
	}
	if got := testutil.ToFloat64(reg.TokenStoreOps.WithLabelValues("clear", "ok")); got != 1 {
		t.Errorf("clear ok = %v", got)
	}
}
