// Package trie implements a prefix tree over segmented string keys.
package trie

import "strings"

// Splitter breaks a key into the segments the trie is keyed on.
type Splitter func(key string) []string

// SplitChars splits a key into individual characters.
func SplitChars(key string) []string {
	return strings.Split(key, "")
}

// SplitPath splits a key on '/' and '#' so module references behave like
// hierarchical path segments. Empty segments are dropped, but an absolute key
// keeps "/" as its first segment so it never meets a relative one.
func SplitPath(key string) []string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '/' || r == '#'
	})
	if strings.HasPrefix(key, "/") {
		parts = append([]string{"/"}, parts...)
	}
	return parts
}

type node[V any] struct {
	children map[string]*node[V]
	value    V
	set      bool
}

func newNode[V any]() *node[V] {
	return &node[V]{children: make(map[string]*node[V])}
}

// Trie maps keys to values. It is not safe for concurrent mutation.
type Trie[V any] struct {
	root  *node[V]
	split Splitter
	size  int
}

// New returns an empty trie. A nil splitter selects SplitChars.
func New[V any](split Splitter) *Trie[V] {
	if split == nil {
		split = SplitChars
	}
	return &Trie[V]{root: newNode[V](), split: split}
}

// Insert stores value at key, replacing any value already there.
func (t *Trie[V]) Insert(key string, value V) {
	n := t.root
	for _, seg := range t.split(key) {
		next, ok := n.children[seg]
		if !ok {
			next = newNode[V]()
			n.children[seg] = next
		}
		n = next
	}
	n.value = value
	n.set = true
	t.size++
}

// Get returns the value stored at exactly key. Prefixes of stored keys miss.
func (t *Trie[V]) Get(key string) (V, bool) {
	var zero V
	n := t.root
	for _, seg := range t.split(key) {
		next, ok := n.children[seg]
		if !ok {
			return zero, false
		}
		n = next
	}
	if !n.set {
		return zero, false
	}
	return n.value, true
}

// Size counts Insert calls since the last Clear, overwrites included.
func (t *Trie[V]) Size() int {
	return t.size
}

// Clear empties the trie.
func (t *Trie[V]) Clear() {
	t.root = newNode[V]()
	t.size = 0
}
