package repl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_Add(t *testing.T) {
	h := NewHistory("")
	h.Add("post list")
	h.Add("post list")
	h.Add("")
	h.Add("login --username alice --password secret")
	h.Add("auth status")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (entries %v)", h.Len(), h.Entries())
	}
	if h.Get(0) != "auth status" {
		t.Errorf("Get(0) = %q, want auth status", h.Get(0))
	}
	if h.Get(1) != "post list" {
		t.Errorf("Get(1) = %q, want post list", h.Get(1))
	}
	if h.Get(5) != "" || h.Get(-1) != "" {
		t.Error("out of range Get should return empty string")
	}
}

func TestSensitive(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"login -u alice --password secret", true},
		{"login -u alice --password=secret", true},
		{"signup -u bob --confirm x", true},
		{"config set store.passphrase hunter2", true},
		{"config get store.passphrase", false},
		{"config set http.user_agent cli/1", false},
		{"post create --title password", false},
		{"login -u alice", false},
	}
	for _, tt := range tests {
		if got := Sensitive(tt.line); got != tt.want {
			t.Errorf("Sensitive(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestHistory_Add_TrimsAndSkipsSecrets(t *testing.T) {
	h := NewHistory("")
	h.Add("  post list  ")
	h.Add("config set store.passphrase hunter2")
	h.Add("post list")

	if got := h.Entries(); len(got) != 1 || got[0] != "post list" {
		t.Errorf("Entries() = %q", got)
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory("")
	h.maxSize = 3
	for _, cmd := range []string{"a", "b", "c", "d"} {
		h.Add(cmd)
	}
	if h.Len() != 3 || h.Get(2) != "b" {
		t.Errorf("entries = %v, want [b c d]", h.Entries())
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file)
	h.Add("post list")
	h.Add("comment list 1")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("history file mode = %o, want 600", perm)
	}

	loaded := NewHistory(file)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 || loaded.Get(0) != "comment list 1" {
		t.Errorf("loaded entries = %v", loaded.Entries())
	}
}

func TestHistory_Save_Replaces(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "history")
	if err := os.WriteFile(file, []byte("old entry\n"), 0600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(file)
	h.Add("post list")
	if err := h.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "post list\n" {
		t.Errorf("history file = %q", data)
	}
	left, _ := filepath.Glob(filepath.Join(dir, ".history-*"))
	if len(left) != 0 {
		t.Errorf("temporary files left: %v", left)
	}
}

func TestHistory_Load_Missing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Errorf("Load() of missing file error = %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}
