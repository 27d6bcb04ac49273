package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrorCodePathNotFound         ErrorCode = "PATH_NOT_FOUND"
	ErrorCodeJobNotFound          ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeRouteNotFound        ErrorCode = "ROUTE_NOT_FOUND"
	ErrorCodeInvalidJSON          ErrorCode = "INVALID_JSON"
	ErrorCodeRequestTooLarge      ErrorCode = "REQUEST_TOO_LARGE"
	ErrorCodeCatalogNotConfigured ErrorCode = "CATALOG_NOT_CONFIGURED"

	// Server Error Codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeLookupFailed       ErrorCode = "LOOKUP_FAILED"
	ErrorCodeLookupTimeout      ErrorCode = "LOOKUP_TIMEOUT"
	ErrorCodeBundleFailed       ErrorCode = "BUNDLE_FAILED"
	ErrorCodeJobExecutionFailed ErrorCode = "JOB_EXECUTION_FAILED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.AbortWithStatusJSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with one detail per problem
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendPathNotFoundError sends a standardized path not found error
func SendPathNotFoundError(c *gin.Context, err error) {
	SendError(c, http.StatusNotFound, ErrorCodePathNotFound, err.Error())
}

// SendJobNotFoundError sends a standardized job not found error
func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound,
		"Job '"+jobID+"' not found")
}

// SendRouteNotFoundError answers requests that match no route
func SendRouteNotFoundError(c *gin.Context) {
	SendError(c, http.StatusNotFound, ErrorCodeRouteNotFound,
		"No route for "+c.Request.Method+" "+c.Request.URL.Path)
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendRequestTooLargeError sends a standardized body size error
func SendRequestTooLargeError(c *gin.Context, limit int64) {
	SendError(c, http.StatusRequestEntityTooLarge, ErrorCodeRequestTooLarge,
		"Request body exceeds the limit of "+formatBytes(limit))
}

// SendCatalogNotConfiguredError explains that rebuilds need a catalog
func SendCatalogNotConfiguredError(c *gin.Context) {
	SendError(c, http.StatusConflict, ErrorCodeCatalogNotConfigured,
		"No catalog is configured, so the index cannot be rebuilt")
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendLookupError sends a standardized batch lookup error
func SendLookupError(c *gin.Context, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeLookupFailed,
		"Lookup failed: "+err.Error())
}

// SendLookupTimeoutError answers a batch lookup that ran past its deadline
func SendLookupTimeoutError(c *gin.Context, timeout time.Duration) {
	SendError(c, http.StatusGatewayTimeout, ErrorCodeLookupTimeout,
		"Lookup did not finish within "+timeout.String())
}

// SendBundleError sends a standardized bundle encoding error
func SendBundleError(c *gin.Context, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeBundleFailed,
		"Failed to encode index bundle: "+err.Error())
}

// SendJobExecutionError sends a standardized job execution error
func SendJobExecutionError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeJobExecutionFailed,
		"Failed to start "+operation+" job: "+err.Error())
}
