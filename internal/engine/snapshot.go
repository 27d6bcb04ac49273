package engine

import (
	"fmt"
	"time"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/search"
	"github.com/gcbaptista/doc-search-index/services"
)

// Snapshot sources.
const (
	SourceEmpty    = "empty"
	SourceEntities = "entities"
	SourceCatalog  = "catalog"
	SourceBundle   = "bundle"
)

// Snapshot is one immutable, fully built index together with the searcher
// that serves it. The engine replaces snapshots wholesale and never mutates
// a published one.
type Snapshot struct {
	Index    *index.SearchIndex
	Version  string
	BuiltAt  time.Time
	Source   string
	searcher *search.Service
}

func newSnapshot(idx *index.SearchIndex, version string, builtAt time.Time, source string, opts search.Options) (*Snapshot, error) {
	searcher, err := search.NewService(idx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service for index %s: %w", version, err)
	}
	return &Snapshot{
		Index:    idx,
		Version:  version,
		BuiltAt:  builtAt,
		Source:   source,
		searcher: searcher,
	}, nil
}

// Searcher returns the query service bound to this snapshot.
func (s *Snapshot) Searcher() *search.Service {
	return s.searcher
}

// Status summarises the snapshot.
func (s *Snapshot) Status() services.IndexStatus {
	return services.IndexStatus{
		Version: s.Version,
		BuiltAt: s.BuiltAt,
		Source:  s.Source,
		Stats:   s.Index.Stats(),
	}
}
