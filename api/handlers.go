package api

import (
	"bytes"
	"context"
	stdErrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/internal/logger"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/internal/persistence"
	"github.com/gcbaptista/doc-search-index/model"
	"github.com/gcbaptista/doc-search-index/services"
)

// Options configures the HTTP surface.
type Options struct {
	MaxSuggestions  int   // Default suggestion limit; 0 means unlimited
	MaxBatchTokens  int   // Upper bound for batch lookups; 0 uses the default
	MaxRequestBytes int64 // Request body limit; 0 disables the limit
	Metrics         *metrics.Metrics
	// LookupTimeout bounds a batch lookup; 0 means no timeout.
	LookupTimeout time.Duration
}

// API holds dependencies for API handlers, primarily the index engine.
type API struct {
	engine services.IndexManager
	opts   Options
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager, opts Options) *API {
	if opts.MaxBatchTokens <= 0 {
		opts.MaxBatchTokens = defaultMaxBatchTokens
	}
	return &API{engine: engine, opts: opts}
}

// NewRouter builds a gin engine with the standard middleware chain and all routes.
func NewRouter(engine services.IndexManager, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggerMiddleware(logger.WithComponent("http")))
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}
	router.Use(CORSMiddleware())
	if opts.MaxRequestBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(opts.MaxRequestBytes))
	}
	router.NoRoute(SendRouteNotFoundError)

	SetupRoutes(router, engine, opts)
	return router
}

// SetupRoutes defines all the API routes for the search index.
func SetupRoutes(router *gin.Engine, engine services.IndexManager, opts Options) {
	apiHandler := NewAPI(engine, opts)

	router.GET("/health", apiHandler.HealthCheckHandler)

	// Query routes used by the search box
	router.GET("/suggest", apiHandler.SuggestHandler)
	router.GET("/lookup", apiHandler.LookupHandler)
	router.POST("/lookup/_batch", apiHandler.LookupBatchHandler)
	router.GET("/describe", apiHandler.DescribeHandler)

	// Index routes
	router.GET("/stats", apiHandler.StatsHandler)
	router.GET("/bundle", apiHandler.BundleHandler)
	router.POST("/rebuild", apiHandler.RebuildHandler)

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
	}

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
}

// SuggestResponse is the body of GET /suggest
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	Total       int      `json:"total"`     // Matches before the limit was applied
	Truncated   bool     `json:"truncated"` // True when Total exceeds len(Suggestions)
}

// LookupResponse is the body of GET /lookup
type LookupResponse struct {
	Token string `json:"token"`
	*index.SearchPaths
}

// DescribeResponse is the body of GET /describe
type DescribeResponse struct {
	Path string `json:"path"`
	model.BasicSearchInfo
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	status := api.engine.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "doc-search-index",
		"index_version": status.Version,
		"timestamp":     strconv.FormatInt(time.Now().Unix(), 10),
	})
}

// SuggestHandler returns the display names starting with q, ignoring case.
// Query: q (prefix), limit (optional, 0 for all)
func (api *API) SuggestHandler(c *gin.Context) {
	prefix := c.Query("q")
	limit, validation := ValidateSuggestQuery(prefix, c.Query("limit"), api.opts.MaxSuggestions)
	if validation.HasErrors() {
		SendValidationError(c, validation)
		return
	}

	suggestions := api.engine.Suggest(prefix)
	total := len(suggestions)
	if limit > 0 && total > limit {
		suggestions = suggestions[:limit]
	}

	c.JSON(http.StatusOK, SuggestResponse{
		Query:       prefix,
		Suggestions: suggestions,
		Total:       total,
		Truncated:   len(suggestions) < total,
	})
}

// LookupHandler returns the exact and partial matches for one token.
// Query: token
func (api *API) LookupHandler(c *gin.Context) {
	token := c.Query("token")
	if validation := ValidateToken("token", token); validation.HasErrors() {
		SendValidationError(c, validation)
		return
	}

	c.JSON(http.StatusOK, LookupResponse{
		Token:       token,
		SearchPaths: api.engine.Lookup(token),
	})
}

// LookupBatchHandler resolves several tokens against the same index.
// Request Body: services.LookupBatchRequest
func (api *API) LookupBatchHandler(c *gin.Context) {
	var req services.LookupBatchRequest
	if !BindJSON(c, &req) {
		return
	}
	if validation := ValidateBatchTokens(req.Tokens, api.opts.MaxBatchTokens); validation.HasErrors() {
		SendValidationError(c, validation)
		return
	}

	ctx := c.Request.Context()
	if api.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, api.opts.LookupTimeout)
		defer cancel()
	}

	start := time.Now()
	results, err := api.engine.LookupMany(ctx, req.Tokens)
	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) {
			SendLookupTimeoutError(c, api.opts.LookupTimeout)
			return
		}
		SendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.LookupBatchResult{
		Results:          results,
		TotalTokens:      len(req.Tokens),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// DescribeHandler returns the display record for a documentation path.
// Query: path
func (api *API) DescribeHandler(c *gin.Context) {
	path := c.Query("path")
	if validation := ValidateDocPath(path); validation.HasErrors() {
		SendValidationError(c, validation)
		return
	}

	info, ok := api.engine.Describe(path)
	if !ok {
		SendPathNotFoundError(c, errors.NewPathNotFoundError(path))
		return
	}

	c.JSON(http.StatusOK, DescribeResponse{Path: path, BasicSearchInfo: info})
}

// StatsHandler reports the version and size of the served index
func (api *API) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.engine.Status())
}

// BundleHandler streams the served index as a bundle for client-side search.
// Query: format (json, gob). The index version doubles as the ETag.
func (api *API) BundleHandler(c *gin.Context) {
	format, validation := ValidateBundleFormat(c.Query("format"))
	if validation.HasErrors() {
		SendValidationError(c, validation)
		return
	}

	bundle := api.engine.Bundle()
	etag := `"` + bundle.IndexVersion + `-` + string(format) + `"`
	if match := c.GetHeader("If-None-Match"); match != "" && strings.Contains(match, etag) {
		c.Header("ETag", etag)
		c.Status(http.StatusNotModified)
		return
	}

	var buf bytes.Buffer
	if err := persistence.Encode(&buf, bundle, format); err != nil {
		SendBundleError(c, err)
		return
	}

	contentType := "application/json"
	if format == persistence.FormatGob {
		contentType = "application/octet-stream"
	}
	c.Header("ETag", etag)
	c.Header("Content-Disposition", `attachment; filename="search-index.`+string(format)+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
