package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for precondition failures.
var (
	// ErrNoActiveDraft is returned by draft operations that require an
	// active assessment session.
	ErrNoActiveDraft = errors.New("no active draft")
	// ErrNotAuthenticated is returned by operations that require a
	// logged-in user.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrNotFound is returned when a record lookup misses.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed input to a public operation. All
// violations found in one call are collected before the error is
// returned, so the caller can surface the full list at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Violation appends a formatted violation to the error.
func (e *ValidationError) Violation(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// OrNil returns the error itself when violations were recorded, nil
// otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Violations) > 0 {
		return e
	}
	return nil
}

// ConflictError reports a uniqueness violation, such as a duplicate
// report or draft name. The caller is expected to prompt for a
// different name.
type ConflictError struct {
	Resource string
	Name     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a %s named %q already exists", e.Resource, e.Name)
}

// StorageError reports a failed read or write against the underlying
// blob store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
