package index

import (
	"unicode"
	"unicode/utf8"
)

// TrieNode is a single node of a Trie.
// Only the root keeps a zero Letter. Siblings always carry distinct letters,
// but may differ only in case ('a' and 'A' are separate children).
type TrieNode struct {
	Letter     rune
	IsTerminal bool        // True when a whole inserted word ends at this node
	Word       string      // The word ending here; set only when IsTerminal
	Children   []*TrieNode // Kept in insertion order
}

// Trie is a prefix tree over the display names of documented entities.
// Insertion is case-sensitive; prefix retrieval is case-insensitive.
type Trie struct {
	root    *TrieNode
	members map[string]struct{}
	words   []string // insertion order, used to rebuild an identical trie
	nodes   int
}

// NewTrie creates an empty Trie.
func NewTrie() *Trie {
	return &Trie{
		root:    &TrieNode{},
		members: make(map[string]struct{}),
		words:   make([]string, 0),
		nodes:   1,
	}
}

// NewTrieFromWords rebuilds a Trie by inserting words in the given order.
// Inserting in the original insertion order reproduces the original shape.
func NewTrieFromWords(words []string) *Trie {
	t := NewTrie()
	for _, w := range words {
		t.Insert(w)
	}
	return t
}

// Insert adds word to the trie.
// Empty words and words that are already members are ignored.
func (t *Trie) Insert(word string) {
	if word == "" {
		return
	}
	if t.Contains(word) {
		return
	}

	node := t.root
	for _, letter := range letters(word) {
		next := childWithLetter(node, letter)
		if next == nil {
			next = &TrieNode{Letter: letter}
			node.Children = append(node.Children, next)
			t.nodes++
		}
		node = next
	}

	node.IsTerminal = true
	node.Word = word
	t.members[word] = struct{}{}
	t.words = append(t.words, word)
}

// Contains reports whether word was inserted, comparing case-sensitively.
func (t *Trie) Contains(word string) bool {
	_, ok := t.members[word]
	return ok
}

// Suggest returns every inserted word that has prefix as a case-insensitive
// prefix, in depth-first order with siblings visited in insertion order.
// An empty prefix yields an empty result rather than the whole vocabulary.
func (t *Trie) Suggest(prefix string) []string {
	words := make([]string, 0)
	if prefix == "" {
		return words
	}
	collectPrefixed(t.root, letters(prefix), &words)
	return words
}

// Len returns the number of distinct words in the trie.
func (t *Trie) Len() int {
	return len(t.words)
}

// NodeCount returns the number of nodes, including the root.
func (t *Trie) NodeCount() int {
	return t.nodes
}

// Words returns a copy of the inserted words in insertion order.
func (t *Trie) Words() []string {
	out := make([]string, len(t.words))
	copy(out, t.words)
	return out
}

// collectPrefixed walks down the branches matching rest and, once rest is
// consumed, gathers every word in the reached subtree. Upper- and lower-case
// children can both match, so every matching child is explored.
func collectPrefixed(node *TrieNode, rest []rune, words *[]string) {
	if len(rest) == 0 {
		collectAll(node, words)
		return
	}
	for _, child := range node.Children {
		if sameLetterIgnoringCase(child.Letter, rest[0]) {
			collectPrefixed(child, rest[1:], words)
		}
	}
}

func collectAll(node *TrieNode, words *[]string) {
	if node.IsTerminal {
		*words = append(*words, node.Word)
	}
	for _, child := range node.Children {
		collectAll(child, words)
	}
}

func childWithLetter(node *TrieNode, letter rune) *TrieNode {
	for _, child := range node.Children {
		if child.Letter == letter {
			return child
		}
	}
	return nil
}

func sameLetterIgnoringCase(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}

// invalidByteBase maps each byte of malformed UTF-8 onto its own surrogate
// code point. Decoding never yields surrogates, so distinct byte strings always
// spell distinct letter paths.
const invalidByteBase = 0xDC00

// letters splits s into trie letters.
func letters(s string) []rune {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			r = invalidByteBase + rune(s[i])
		}
		out = append(out, r)
		i += size
	}
	return out
}
