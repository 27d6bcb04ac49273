package index

import (
	"github.com/gcbaptista/doc-search-index/store"
)

// SearchIndex bundles the three structures built from one catalog: the
// suggestion trie, the token table and the path metadata. It is filled by a
// single builder and treated as read-only once handed to readers.
type SearchIndex struct {
	Trie     *Trie
	Tokens   *TokenIndex
	Metadata *store.MetadataStore
}

// NewSearchIndex creates an empty SearchIndex.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{
		Trie:     NewTrie(),
		Tokens:   NewTokenIndex(),
		Metadata: store.NewMetadataStore(),
	}
}

// Stats summarises the size of a SearchIndex.
type Stats struct {
	Words     int `json:"words"`
	TrieNodes int `json:"trie_nodes"`
	Tokens    int `json:"tokens"`
	Paths     int `json:"paths"`
}

// Stats returns the current sizes of the three structures.
func (si *SearchIndex) Stats() Stats {
	return Stats{
		Words:     si.Trie.Len(),
		TrieNodes: si.Trie.NodeCount(),
		Tokens:    si.Tokens.Len(),
		Paths:     si.Metadata.Len(),
	}
}
