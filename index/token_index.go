package index

import "github.com/gcbaptista/doc-search-index/model"

// TokenIndex maps a lowercase search token to the documentation paths it
// leads to, bucketed by category and by exact/partial match.
type TokenIndex struct {
	tokens map[string]*SearchPaths
}

// NewTokenIndex creates an empty TokenIndex.
func NewTokenIndex() *TokenIndex {
	return &TokenIndex{tokens: make(map[string]*SearchPaths)}
}

// NewTokenIndexFromTable wraps an already decoded token table.
// Nil entries and nil buckets are replaced with empty ones.
func NewTokenIndexFromTable(table map[string]*SearchPaths) *TokenIndex {
	if table == nil {
		table = make(map[string]*SearchPaths)
	}
	for token, paths := range table {
		if paths == nil {
			paths = NewSearchPaths()
			table[token] = paths
		}
		if paths.ExactMatches == nil {
			paths.ExactMatches = make(FolderPaths)
		}
		if paths.PartialMatches == nil {
			paths.PartialMatches = make(FolderPaths)
		}
	}
	return &TokenIndex{tokens: table}
}

// Record appends path to the token's exact or partial bucket for category.
// The token is used as given; callers are expected to pass it lowercased.
// Paths are never deduplicated: recording the same path twice stores it twice.
func (ti *TokenIndex) Record(token string, category model.Category, path string, isExact bool) {
	paths, ok := ti.tokens[token]
	if !ok {
		paths = NewSearchPaths()
		ti.tokens[token] = paths
	}
	paths.add(category, path, isExact)
}

// Lookup returns a copy of the paths recorded for token, or an empty
// SearchPaths when the token was never recorded.
func (ti *TokenIndex) Lookup(token string) *SearchPaths {
	paths, ok := ti.tokens[token]
	if !ok {
		return NewSearchPaths()
	}
	return paths.Clone()
}

// Has reports whether token has been recorded.
func (ti *TokenIndex) Has(token string) bool {
	_, ok := ti.tokens[token]
	return ok
}

// Len returns the number of distinct tokens.
func (ti *TokenIndex) Len() int {
	return len(ti.tokens)
}

// Table returns a deep copy of the whole token table, for serialization.
func (ti *TokenIndex) Table() map[string]*SearchPaths {
	out := make(map[string]*SearchPaths, len(ti.tokens))
	for token, paths := range ti.tokens {
		out[token] = paths.Clone()
	}
	return out
}
