package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/doc-search-index/internal/catalog"
	"github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/internal/indexing"
	"github.com/gcbaptista/doc-search-index/model"
)

const catalogRebuildKey = "catalog"

// Rebuild builds a new index from entities and publishes it. On error the
// previous snapshot keeps being served.
func (e *Engine) Rebuild(ctx context.Context, entities []model.Entity) (*indexing.BuildReport, error) {
	return e.rebuild(ctx, entities, SourceEntities, nil)
}

// RebuildFromCatalog loads the configured catalog and rebuilds from it.
// Concurrent calls share a load and build as long as that build has not read
// the catalog yet; a call arriving after the read waits for it to finish and
// then rebuilds from the file as it is now. Cancelling ctx stops the wait but
// not a build that is already shared.
func (e *Engine) RebuildFromCatalog(ctx context.Context) (*indexing.BuildReport, error) {
	return e.rebuildFromCatalog(ctx, nil)
}

func (e *Engine) rebuildFromCatalog(ctx context.Context, progress func(done, total int)) (*indexing.BuildReport, error) {
	if e.opts.CatalogPath == "" {
		return nil, errors.ErrCatalogNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rebuild cancelled: %w", err)
	}

	key := catalogRebuildKey + "-" + strconv.FormatUint(e.catalogReads.Load(), 10)
	buildCtx := context.WithoutCancel(ctx)
	results := e.rebuilds.DoChan(key, func() (interface{}, error) {
		e.catalogMu.Lock()
		defer e.catalogMu.Unlock()

		// Later callers get a new key and no longer join this build
		e.catalogReads.Add(1)
		entities, err := catalog.Load(e.opts.CatalogPath, e.opts.Catalog)
		if err != nil {
			e.opts.Metrics.ObserveBuild(false, 0)
			return nil, err
		}
		return e.rebuild(buildCtx, entities, SourceCatalog, progress)
	})

	select {
	case res := <-results:
		if res.Shared {
			e.log.Debug("catalog rebuild shared with a concurrent caller")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*indexing.BuildReport), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("rebuild cancelled: %w", ctx.Err())
	}
}

func (e *Engine) rebuild(ctx context.Context, entities []model.Entity, source string, progress func(done, total int)) (*indexing.BuildReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rebuild cancelled: %w", err)
	}

	idx, report, err := indexing.Build(entities, indexing.Options{
		Strict:   e.opts.Strict,
		Metrics:  e.opts.Metrics,
		Progress: progress,
	})
	if err != nil {
		e.log.Error("index build failed, keeping previous index", "source", source, "error", err)
		return nil, err
	}

	// A build is not interruptible; a cancellation that arrived meanwhile
	// still prevents the result from replacing the served index.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rebuild cancelled: %w", err)
	}

	snap, err := newSnapshot(idx, uuid.NewString(), time.Now().UTC(), source, e.searchOptions())
	if err != nil {
		return nil, err
	}
	e.publish(snap)
	return report, nil
}
