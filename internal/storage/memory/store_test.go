package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yndnr/minisocial-go/internal/storage"
)

func TestStore_CRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, []byte("k")); err != storage.ErrKeyNotFound {
		t.Fatalf("Get(missing) err = %v", err)
	}

	val := []byte("v")
	if err := s.Set(ctx, []byte("k"), val); err != nil {
		t.Fatal(err)
	}
	val[0] = 'x'

	got, err := s.Get(ctx, []byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v (store must copy values)", got, err)
	}

	if err := s.Delete(ctx, []byte("k")); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestStore_Scan(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, k := range []string{"a/2", "a/1", "b/1"} {
		s.Set(ctx, []byte(k), []byte(k))
	}

	var keys []string
	s.Scan(ctx, []byte("a/"), func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	if len(keys) != 2 || keys[0] != "a/1" || keys[1] != "a/2" {
		t.Errorf("Scan = %v", keys)
	}
}

func TestStore_FailSetWith(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailSetWith(func([]byte) error { return boom })

	if err := s.Set(context.Background(), []byte("k"), nil); !errors.Is(err, boom) {
		t.Errorf("Set err = %v", err)
	}

	s.FailSetWith(nil)
	if err := s.Set(context.Background(), []byte("k"), nil); err != nil {
		t.Errorf("Set after hook removed = %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	s := New()
	s.Set(context.Background(), []byte("k"), []byte("v"))
	s.Close()

	if _, err := s.Get(context.Background(), []byte("k")); err != storage.ErrClosed {
		t.Errorf("Get after Close = %v", err)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []byte{byte('a' + i%26)}
			s.Set(ctx, key, key)
			s.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	if s.Len() != 26 {
		t.Errorf("Len = %d, want 26", s.Len())
	}
}
