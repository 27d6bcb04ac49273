package index

import "github.com/gcbaptista/doc-search-index/model"

// FolderPaths maps an entity category to the documentation paths recorded for
// it, in insertion order.
type FolderPaths map[model.Category][]string

// Get returns the paths recorded under category. The result is nil when
// nothing was recorded.
func (fp FolderPaths) Get(category model.Category) []string {
	return fp[category]
}

// Len returns the number of paths across all categories.
func (fp FolderPaths) Len() int {
	total := 0
	for _, paths := range fp {
		total += len(paths)
	}
	return total
}

func (fp FolderPaths) clone() FolderPaths {
	out := make(FolderPaths, len(fp))
	for category, paths := range fp {
		copied := make([]string, len(paths))
		copy(copied, paths)
		out[category] = copied
	}
	return out
}

// SearchPaths holds the documentation paths a token leads to, split into
// exact name matches and partial (name fragment) matches.
type SearchPaths struct {
	ExactMatches   FolderPaths `json:"exact_matches"`
	PartialMatches FolderPaths `json:"partial_matches"`
}

// NewSearchPaths creates a SearchPaths with every bucket empty.
func NewSearchPaths() *SearchPaths {
	return &SearchPaths{
		ExactMatches:   make(FolderPaths),
		PartialMatches: make(FolderPaths),
	}
}

// IsEmpty reports whether no path is recorded in any bucket.
func (sp *SearchPaths) IsEmpty() bool {
	return sp.ExactMatches.Len() == 0 && sp.PartialMatches.Len() == 0
}

// Clone returns a deep copy, so callers cannot alter the frozen index.
func (sp *SearchPaths) Clone() *SearchPaths {
	return &SearchPaths{
		ExactMatches:   sp.ExactMatches.clone(),
		PartialMatches: sp.PartialMatches.clone(),
	}
}

func (sp *SearchPaths) add(category model.Category, path string, isExact bool) {
	if isExact {
		sp.ExactMatches[category] = append(sp.ExactMatches[category], path)
		return
	}
	sp.PartialMatches[category] = append(sp.PartialMatches[category], path)
}
