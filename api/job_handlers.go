package api

import (
	stdErrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/model"
)

// RebuildHandler starts a background rebuild from the configured catalog
func (api *API) RebuildHandler(c *gin.Context) {
	jobID, err := api.engine.RebuildAsync()
	if err != nil {
		if stdErrors.Is(err, errors.ErrCatalogNotConfigured) {
			SendCatalogNotConfiguredError(c)
			return
		}
		SendJobExecutionError(c, "rebuild", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Index rebuild started",
		"job_id":  jobID,
	})
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.engine.GetJob(jobID)
	if err != nil {
		if stdErrors.Is(err, errors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "job lookup", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists background jobs, newest first.
// Query: status (optional: pending, running, completed, failed, cancelled)
func (api *API) ListJobsHandler(c *gin.Context) {
	var statusFilter *model.JobStatus
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.JobStatus(statusParam)
		if !status.Valid() {
			result := &ValidationResult{Valid: true}
			result.AddError("status", "Status must be one of pending, running, completed, failed, cancelled")
			SendValidationError(c, result)
			return
		}
		statusFilter = &status
	}

	jobs := api.engine.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}
