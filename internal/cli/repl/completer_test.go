package repl

import (
	"reflect"
	"testing"
)

func TestNewCompleter_IncludesBuiltins(t *testing.T) {
	c := NewCompleter("post list", "post list")
	got := c.Complete("")
	want := []string{"exit", "help", "history", "post", "quit"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Complete(\"\") = %v, want %v", got, want)
	}
}

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter("login", "logout", "post", "post list", "post get", "comment", "comment list", "profile use")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"log", []string{"login", "logout"}},
		{"post ", []string{"post get", "post list"}},
		{"post   l", []string{"post list"}},
		{"post\tg", []string{"post get"}},
		{"comment", []string{"comment"}},
		{"comment ", []string{"comment list"}},
		{"profile", []string{"profile"}},
		{"post list ", nil},
		{"xyz", nil},
		{"xyz ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := c.Complete(tt.prefix)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}
