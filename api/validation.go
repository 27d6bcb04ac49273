// Package api exposes the documentation search index over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/doc-search-index/internal/persistence"
)

// Request limits.
const (
	maxQueryLength        = 256
	defaultMaxBatchTokens = 100
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateSuggestQuery validates the prefix and limit of a suggest request.
// The returned limit is defaultLimit when none was given; 0 means unlimited.
func ValidateSuggestQuery(prefix, limitParam string, defaultLimit int) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if len(prefix) > maxQueryLength {
		result.AddError("q", fmt.Sprintf("Prefix cannot be longer than %d bytes", maxQueryLength))
	}

	limit := defaultLimit
	if limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		switch {
		case err != nil:
			result.AddError("limit", "Limit must be an integer")
		case parsed < 0:
			result.AddError("limit", "Limit cannot be negative")
		default:
			limit = parsed
		}
	}

	return limit, result
}

// ValidateToken validates a lookup token
func ValidateToken(field, token string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(token) == "" {
		result.AddError(field, "Token is required")
		return result
	}

	if len(token) > maxQueryLength {
		result.AddError(field, fmt.Sprintf("Token cannot be longer than %d bytes", maxQueryLength))
	}

	return result
}

// ValidateDocPath validates a documentation path parameter
func ValidateDocPath(path string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if path == "" {
		result.AddError("path", "Path is required")
		return result
	}

	if strings.TrimSpace(path) != path {
		result.AddError("path", "Path cannot have leading or trailing whitespace")
	}

	return result
}

// ValidateBatchTokens validates the tokens of a batch lookup
func ValidateBatchTokens(tokens []string, maxTokens int) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(tokens) == 0 {
		result.AddError("tokens", "At least one token is required")
		return result
	}

	if len(tokens) > maxTokens {
		result.AddError("tokens", fmt.Sprintf("Cannot look up more than %d tokens at once", maxTokens))
		return result
	}

	for i, token := range tokens {
		for _, err := range ValidateToken(fmt.Sprintf("tokens[%d]", i), token).Errors {
			result.AddError(err.Field, err.Message)
		}
	}

	return result
}

// ValidateBundleFormat maps the format query parameter to a bundle format
func ValidateBundleFormat(format string) (persistence.Format, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	switch strings.ToLower(format) {
	case "", string(persistence.FormatJSON):
		return persistence.FormatJSON, result
	case string(persistence.FormatGob):
		return persistence.FormatGob, result
	default:
		result.AddError("format", "Format must be 'json' or 'gob'")
		return "", result
	}
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// BindJSON decodes the request body into target, answering the request with
// the matching error when it cannot. It reports whether decoding succeeded.
func BindJSON(c *gin.Context, target interface{}) bool {
	err := c.ShouldBindJSON(target)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		SendRequestTooLargeError(c, tooLarge.Limit)
		return false
	}

	SendInvalidJSONError(c, err)
	return false
}
