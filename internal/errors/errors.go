package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidEntity is returned when a catalog entity fails validation
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrPathNotFound is returned when no metadata is recorded for a documentation path
	ErrPathNotFound = errors.New("path not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrCatalogNotConfigured is returned when a rebuild is requested without a catalog path
	ErrCatalogNotConfigured = errors.New("catalog not configured")
)

// InvalidEntityError describes why a catalog entity was rejected
type InvalidEntityError struct {
	Name    string
	Path    string
	Field   string
	Message string
}

func (e *InvalidEntityError) Error() string {
	subject := e.Path
	if subject == "" {
		subject = e.Name
	}
	if subject == "" {
		return fmt.Sprintf("invalid entity: field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid entity '%s': field '%s': %s", subject, e.Field, e.Message)
}

func (e *InvalidEntityError) Is(target error) bool {
	return target == ErrInvalidEntity
}

// NewInvalidEntityError creates a new InvalidEntityError
func NewInvalidEntityError(name, path, field, message string) *InvalidEntityError {
	return &InvalidEntityError{Name: name, Path: path, Field: field, Message: message}
}

// PathNotFoundError represents a describe miss with context
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("no documentation recorded for path '%s'", e.Path)
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// NewPathNotFoundError creates a new PathNotFoundError
func NewPathNotFoundError(path string) *PathNotFoundError {
	return &PathNotFoundError{Path: path}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
