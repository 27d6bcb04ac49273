package engine

import (
	"context"
	"fmt"

	"github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/model"
)

// progressEvery limits how often build progress is copied into the job.
const progressEvery = 500

// RebuildAsync starts a catalog rebuild in the background and returns the
// job ID to poll.
func (e *Engine) RebuildAsync() (string, error) {
	if e.opts.CatalogPath == "" {
		return "", errors.ErrCatalogNotConfigured
	}

	jobID := e.jobManager.CreateJob(model.JobTypeRebuild, map[string]string{
		"catalog": e.opts.CatalogPath,
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeRebuildJob(ctx, job.ID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start rebuild job: %w", err)
	}

	return jobID, nil
}

// executeRebuildJob runs a catalog rebuild, reporting progress on the job.
func (e *Engine) executeRebuildJob(ctx context.Context, jobID string) error {
	e.jobManager.UpdateJobProgress(jobID, 0, 0, "loading catalog")

	report, err := e.rebuildFromCatalog(ctx, func(done, total int) {
		if done%progressEvery == 0 || done == total {
			e.jobManager.UpdateJobProgress(jobID, done, total, "indexing entities")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild from catalog '%s': %w", e.opts.CatalogPath, err)
	}

	total := report.Ingested + report.Rejected
	e.jobManager.UpdateJobProgress(jobID, total, total,
		fmt.Sprintf("indexed %d entities, rejected %d", report.Ingested, report.Rejected))
	return nil
}
