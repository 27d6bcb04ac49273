package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/catalog"
	"github.com/gcbaptista/doc-search-index/internal/jobs"
	"github.com/gcbaptista/doc-search-index/internal/logger"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/internal/search"
	"github.com/gcbaptista/doc-search-index/model"
	"github.com/gcbaptista/doc-search-index/services"
)

// Options configures an Engine.
type Options struct {
	// CatalogPath is the catalog RebuildFromCatalog reads. Empty disables
	// catalog rebuilds.
	CatalogPath string
	Catalog     catalog.Options
	// Strict aborts a build on the first malformed entity instead of skipping it.
	Strict           bool
	SuggestCacheSize int
	MaxJobWorkers    int
	JobRetention     time.Duration
	Metrics          *metrics.Metrics
}

// Engine serves queries from the current index snapshot and replaces that
// snapshot when the catalog is rebuilt or a bundle is loaded. Readers never
// block on a rebuild: they keep using the snapshot they loaded until the
// next query picks up the new one.
// It implements the services.IndexManager interface.
type Engine struct {
	opts         Options
	current      atomic.Pointer[Snapshot]
	rebuilds     singleflight.Group
	catalogMu    sync.Mutex    // one catalog read and publish at a time
	catalogReads atomic.Uint64 // catalog reads started, keys shared rebuilds
	jobManager   *jobs.Manager
	log          *slog.Logger
}

// NewEngine creates an engine serving an empty index and starts its job
// manager. Call Close to stop background jobs.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		opts:       opts,
		jobManager: jobs.NewManager(opts.MaxJobWorkers, opts.JobRetention),
		log:        logger.WithComponent("engine"),
	}

	empty, err := newSnapshot(index.NewSearchIndex(), uuid.NewString(), time.Now().UTC(), SourceEmpty, e.searchOptions())
	if err != nil {
		// An empty index always has every component
		panic(err)
	}
	e.current.Store(empty)

	e.jobManager.Start()
	return e
}

// Close stops the job manager, cancelling running rebuilds.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// Snapshot returns the snapshot currently served.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Suggest returns the display names starting with prefix, ignoring case.
func (e *Engine) Suggest(prefix string) []string {
	return e.current.Load().searcher.Suggest(prefix)
}

// Lookup returns the exact and partial matches for token.
func (e *Engine) Lookup(token string) *index.SearchPaths {
	return e.current.Load().searcher.Lookup(token)
}

// LookupMany resolves several tokens against the same snapshot.
func (e *Engine) LookupMany(ctx context.Context, tokens []string) (map[string]*index.SearchPaths, error) {
	return e.current.Load().searcher.LookupMany(ctx, tokens)
}

// Describe returns the display record for a documentation path.
func (e *Engine) Describe(path string) (model.BasicSearchInfo, bool) {
	return e.current.Load().searcher.Describe(path)
}

// Status describes the snapshot currently served.
func (e *Engine) Status() services.IndexStatus {
	return e.current.Load().Status()
}

// GetJob returns a background job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns the tracked background jobs, newest first, optionally
// filtered by status.
func (e *Engine) ListJobs(status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(status)
}

// publish makes snap the served snapshot.
func (e *Engine) publish(snap *Snapshot) {
	previous := e.current.Swap(snap)
	stats := snap.Index.Stats()
	e.opts.Metrics.SetIndexSize(stats.Words, stats.Tokens, stats.Paths)
	e.log.Info("index published",
		"version", snap.Version,
		"source", snap.Source,
		"previous_version", previous.Version,
		"words", stats.Words,
		"tokens", stats.Tokens,
		"paths", stats.Paths,
	)
}

func (e *Engine) searchOptions() search.Options {
	return search.Options{SuggestCacheSize: e.opts.SuggestCacheSize, Metrics: e.opts.Metrics}
}

var _ services.IndexManager = (*Engine)(nil)
