package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found in the caller's scope
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// InvalidOperationError indicates a structurally invalid request,
	// e.g. a cycle-forming move or a stale sibling reorder
	InvalidOperationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string         { return e.Message }
func (e *ValidationError) Error() string       { return e.Message }
func (e *InvalidOperationError) Error() string { return e.Message }
func (e *UnauthorizedError) Error() string     { return e.Message }

func (e *NotFoundError) StatusCode() int         { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int       { return http.StatusBadRequest }
func (e *InvalidOperationError) StatusCode() int { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int     { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")

	// ErrTxConflict is a serialization failure between concurrent structural
	// mutations on overlapping subtrees. It is the only error class callers
	// are expected to retry automatically.
	ErrTxConflict = errors.New("transaction conflict")
)

// ConflictError represents a resource conflict with details about the
// existing resource. Implements HTTPError.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (node, board)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Is allows errors.Is() to match against ErrInvalidOperation
func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}
