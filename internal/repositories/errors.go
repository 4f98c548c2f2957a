package repositories

import (
	"errors"
	"fmt"
)

// ErrorKind classifies StoreError values.
type ErrorKind string

const (
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindConflict    ErrorKind = "conflict"
	ErrorKindUnavailable ErrorKind = "unavailable"
)

// StoreError is the RepositoryError returned by every store backend.
type StoreError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying error.
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound implements RepositoryError.
func (e *StoreError) IsNotFound() bool { return e != nil && e.Kind == ErrorKindNotFound }

// IsConflict implements RepositoryError.
func (e *StoreError) IsConflict() bool { return e != nil && e.Kind == ErrorKindConflict }

// IsUnavailable implements RepositoryError.
func (e *StoreError) IsUnavailable() bool { return e != nil && e.Kind == ErrorKindUnavailable }

// NewNotFoundError reports a missing record.
func NewNotFoundError(op, message string) *StoreError {
	return &StoreError{Op: op, Kind: ErrorKindNotFound, Err: errors.New(message)}
}

// NewConflictError reports a duplicate or conflicting write.
func NewConflictError(op, message string) *StoreError {
	return &StoreError{Op: op, Kind: ErrorKindConflict, Err: errors.New(message)}
}

// NewUnavailableError reports a transient backend failure.
func NewUnavailableError(op string, err error) *StoreError {
	return &StoreError{Op: op, Kind: ErrorKindUnavailable, Err: err}
}

// IsNotFound reports whether err carries RepositoryError not-found semantics.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err carries RepositoryError conflict semantics.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
