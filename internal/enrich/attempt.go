// Package enrich fills empty canonical fields from external metadata APIs,
// trying sources in a configured fallback order.
package enrich

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibmerge/bibmerge/internal/domain"
)

// Outcome is the terminal state of one source attempt for one record.
type Outcome string

// Attempt outcomes.
const (
	// OutcomePending marks an attempt that has not finished. It never
	// appears in the journal.
	OutcomePending Outcome = "pending"

	// OutcomeSuccess means the source returned metadata and at least zero
	// fields were applied; see FieldsFilled for the actual fills.
	OutcomeSuccess Outcome = "success"

	// OutcomeEmpty means the source knows the DOI but returned no value for
	// any field that was still empty.
	OutcomeEmpty Outcome = "empty"

	// OutcomeNotFound means the source has no entry for the DOI.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeRateLimited means the source stayed rate limited through every
	// allowed retry.
	OutcomeRateLimited Outcome = "rate_limited"

	// OutcomeFailed means a transport or server failure ended the attempt.
	OutcomeFailed Outcome = "failed"
)

// JournalEntry records one finished source attempt. The journal is the
// auditable trace of a run: every lookup, what it filled, and how it ended.
type JournalEntry struct {
	RecordID     uuid.UUID      `json:"recordId"`
	DOI          string         `json:"doi"`
	Source       string         `json:"source"`
	Outcome      Outcome        `json:"outcome"`
	FieldsFilled []domain.Field `json:"fieldsFilled,omitempty"`
	Retries      int            `json:"retries,omitempty"`
	Error        string         `json:"error,omitempty"`

	// Timestamp is when the attempt finished, in UTC.
	Timestamp time.Time `json:"timestamp"`
}
