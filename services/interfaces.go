package services

import (
	"context"
	"time"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/persistence"
	"github.com/gcbaptista/doc-search-index/model"
)

// IndexStatus describes the index currently served.
type IndexStatus struct {
	Version string    `json:"version"`  // unique per published index
	BuiltAt time.Time `json:"built_at"` // when the index was built, not when it was loaded
	Source  string    `json:"source"`   // "empty", "entities", "catalog" or "bundle"
	index.Stats
}

// LookupBatchRequest is the body of a batch token lookup
type LookupBatchRequest struct {
	Tokens []string `json:"tokens"`
}

// LookupBatchResult holds one SearchPaths per distinct requested token.
// TotalTokens counts the tokens as requested, duplicates included.
type LookupBatchResult struct {
	Results          map[string]*index.SearchPaths `json:"results"`
	TotalTokens      int                           `json:"total_tokens"`
	ProcessingTimeMs float64                       `json:"processing_time_ms"`
}

// QueryFacade is the read interface the search box queries through.
type QueryFacade interface {
	Suggest(prefix string) []string
	Lookup(token string) *index.SearchPaths
	Describe(path string) (model.BasicSearchInfo, bool)
}

// BatchLookuper resolves several tokens in one call.
type BatchLookuper interface {
	LookupMany(ctx context.Context, tokens []string) (map[string]*index.SearchPaths, error)
}

// JobManager exposes background job state
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
}

// IndexManager is everything the HTTP layer needs from the engine.
type IndexManager interface {
	QueryFacade
	BatchLookuper
	JobManager
	Status() IndexStatus
	RebuildAsync() (string, error) // Returns job ID
	Bundle() *persistence.Bundle // One consistent snapshot, version included
}
