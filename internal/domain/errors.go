package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the pipeline error taxonomy. Per-record and per-field
// failures are absorbed locally and surfaced through statistics; only
// ErrIrrecoverableInput aborts a run.
var (
	// ErrNotFound indicates an external source has no entry for a record.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates an external source rejected a request due to
	// rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransport indicates a network, auth or server failure talking to an
	// external source.
	ErrTransport = errors.New("transport error")

	// ErrInsufficientTraining indicates a predictable field was skipped
	// because its training partition was too small or too sparse.
	ErrInsufficientTraining = errors.New("insufficient training data")

	// ErrIrrecoverableInput indicates the input collection is structurally
	// unusable. This is the only fatal error in the taxonomy.
	ErrIrrecoverableInput = errors.New("irrecoverable input")
)

// NormalizationError reports an unparseable field value. The owning record
// proceeds through the pipeline degraded; it is never dropped.
type NormalizationError struct {
	Field Field
	Value string
	Cause error
}

// Error implements the error interface.
func (e *NormalizationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("normalizing %s %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("normalizing %s: invalid value %q", e.Field, e.Value)
}

// Unwrap returns the underlying cause.
func (e *NormalizationError) Unwrap() error {
	return e.Cause
}

// RateLimitError reports a rate-limited lookup, with the retry delay the
// source advertised (zero when none was given).
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited by %s", e.Source)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// NotFoundError reports that a source has no metadata for a DOI.
type NotFoundError struct {
	Source string
	DOI    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no metadata for doi %s", e.Source, e.DOI)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TransportError reports a network or server failure from a lookup source.
type TransportError struct {
	Source     string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: request failed with status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *TransportError) Unwrap() error {
	return ErrTransport
}

// InsufficientTrainingError reports why a predictable field was skipped.
type InsufficientTrainingError struct {
	Field    Field
	Rows     int
	Coverage float64
}

// Error implements the error interface.
func (e *InsufficientTrainingError) Error() string {
	return fmt.Sprintf("field %s: insufficient training data (%d rows, %.1f%% coverage)",
		e.Field, e.Rows, e.Coverage*100)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InsufficientTrainingError) Unwrap() error {
	return ErrInsufficientTraining
}
