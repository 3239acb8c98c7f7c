package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHistorySize bounds the kept entries.
const DefaultHistorySize = 1000

// secretFlags carry values that must not reach the history file.
var secretFlags = []string{"--password", "--confirm", "--passphrase"}

// Sensitive reports whether line carries a secret: a password flag or a
// config set of the store passphrase.
func Sensitive(line string) bool {
	fields := strings.Fields(line)
	for i, f := range fields {
		name, _, _ := strings.Cut(f, "=")
		for _, secret := range secretFlags {
			if name == secret {
				return true
			}
		}
		if f == "set" && i > 0 && fields[i-1] == "config" && i+1 < len(fields) &&
			strings.HasSuffix(fields[i+1], "passphrase") {
			return true
		}
	}
	return false
}

// History is the shell's line history, optionally kept in a file.
type History struct {
	entries []string
	maxSize int
	file    string
}

// NewHistory returns a history persisted at file. An empty file keeps it
// in memory.
func NewHistory(file string) *History {
	return &History{maxSize: DefaultHistorySize, file: file}
}

// Add records line unless it is blank, repeats the previous entry or is
// Sensitive.
func (h *History) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || Sensitive(line) {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if over := len(h.entries) - h.maxSize; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Get returns the entry at index, 0 being the most recent.
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

func (h *History) Len() int {
	return len(h.entries)
}

// Load appends the entries of the history file. A missing file is not an
// error.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}
	f, err := os.Open(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		h.Add(sc.Text())
	}
	return sc.Err()
}

// Save replaces the history file with the current entries. The file is
// written to a temporary sibling first and is readable by the owner only.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}
	dir := filepath.Dir(h.file)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, e := range h.entries {
		w.WriteString(e)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), h.file)
}
