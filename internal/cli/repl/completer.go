package repl

import (
	"slices"
	"strings"
	"unicode"
)

// builtins are handled by the loop itself.
var builtins = []string{"exit", "quit", "history", "help"}

// Completer completes command paths one word at a time. "post " lists the
// post subcommands and "post l" the ones starting with l.
type Completer struct {
	root *wordNode
}

type wordNode struct {
	children map[string]*wordNode
}

func (n *wordNode) child(word string) *wordNode {
	if n.children == nil {
		n.children = make(map[string]*wordNode)
	}
	c, ok := n.children[word]
	if !ok {
		c = &wordNode{}
		n.children[word] = c
	}
	return c
}

// NewCompleter builds a completer over command paths such as "post list".
// Builtins are always included.
func NewCompleter(commands ...string) *Completer {
	root := &wordNode{}
	for _, cmd := range append(slices.Clone(commands), builtins...) {
		n := root
		for _, w := range strings.Fields(cmd) {
			n = n.child(w)
		}
	}
	return &Completer{root: root}
}

// Complete returns the full command paths that can follow line, sorted.
func (c *Completer) Complete(line string) []string {
	words := strings.Fields(line)
	partial := ""
	if len(words) > 0 && !endsInSpace(line) {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}

	n := c.root
	for _, w := range words {
		next, ok := n.children[w]
		if !ok {
			return nil
		}
		n = next
	}

	base := strings.Join(words, " ")
	var out []string
	for w := range n.children {
		if !strings.HasPrefix(w, partial) {
			continue
		}
		if base == "" {
			out = append(out, w)
		} else {
			out = append(out, base+" "+w)
		}
	}
	slices.Sort(out)
	return out
}

func endsInSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}
