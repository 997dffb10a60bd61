package gce

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrRunNotFound indicates a run was not found in the repository
	ErrRunNotFound = errors.New("run not found")

	// ErrReportStoreNotFound indicates a report store was not found
	ErrReportStoreNotFound = errors.New("report store not found")

	// ErrReportNotFound indicates a report artifact was not found
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidBundle indicates a run bundle failed validation
	ErrInvalidBundle = errors.New("invalid run bundle")

	// ErrInvalidVerdict indicates a verdict failed validation
	ErrInvalidVerdict = errors.New("invalid verdict")

	// ErrNoBackend indicates the service was built without a backend
	ErrNoBackend = errors.New("no backend configured")

	// ErrNoRepository indicates a history operation was requested but no
	// repository is configured
	ErrNoRepository = errors.New("no run repository configured")

	// ErrDirectAccessOnly indicates the report store does not support
	// URL-based access
	ErrDirectAccessOnly = errors.New("store does not support URL access")
)

// BackendUnavailableError indicates that no verdict backend could be
// constructed, including the always-shipped fallback. Resolution treats
// this as fatal.
type BackendUnavailableError struct {
	Name string
	Err  error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %q is unavailable: %v", e.Name, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// BundleError reports which RunBundle field failed validation.
type BundleError struct {
	Field string
	Err   error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("run bundle field %q: %v", e.Field, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// RunError represents an error related to run history operations.
type RunError struct {
	RunID uuid.UUID
	Op    string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run operation %s failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// StoreError represents an error related to report store operations.
type StoreError struct {
	Store string
	Key   string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("report store operation %s failed for key %s on store %s: %v", e.Op, e.Key, e.Store, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
