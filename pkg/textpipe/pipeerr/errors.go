// Package pipeerr defines the closed set of failure kinds raised by
// pipeline stages. The orchestrator propagates these unchanged; callers
// match with errors.As and decide retry vs. abandon via IsRetriable.
package pipeerr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for common store-level cases.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// CleaningError reports input that could not be normalized into valid
// cleaned output. Never retriable: the same input fails the same way.
type CleaningError struct {
	Reason  string
	Input   string
	TraceID uuid.UUID
}

func (e *CleaningError) Error() string {
	return fmt.Sprintf("cleaning [%s]: %s", e.TraceID, e.Reason)
}

// AnalysisError reports a sentiment lexicon that could not be loaded or
// initialized. Scoring itself never fails.
type AnalysisError struct {
	Reason    string
	Transient bool
	Err       error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis: %s: %v", e.Reason, e.Err)
	}
	return "analysis: " + e.Reason
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// StorageError reports a failed persistence attempt. Transient failures
// (connection loss, busy/locked store, deadline expiry) may succeed on
// retry; permanent ones (constraint violation, malformed record) never do.
// Source and TraceID identify the attempted record for diagnostics.
type StorageError struct {
	Source    string
	Reason    string
	Transient bool
	TraceID   uuid.UUID
	Err       error
}

func (e *StorageError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Err != nil {
		return fmt.Sprintf("storage [%s] source=%q (%s): %s: %v", e.TraceID, e.Source, kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("storage [%s] source=%q (%s): %s", e.TraceID, e.Source, kind, e.Reason)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigError reports an invalid pipeline assembly, such as a stage list
// whose types do not chain. Raised at construction only, never per run.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "pipeline config: " + e.Reason }

// IsRetriable reports whether the failure may succeed if the identical
// submission is retried.
func IsRetriable(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Transient
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Transient
	}
	return false
}
