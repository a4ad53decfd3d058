// Package enrichsources provides interfaces and types for bibliographic
// metadata API clients.
//
// This package defines the foundational abstractions that all metadata source
// implementations must follow. Each external API (CrossRef, OpenAlex,
// DataCite, etc.) implements the MetadataSource interface, allowing the
// enrichment orchestrator to query sources in a configured fallback order
// with a unified API.
//
// Example usage:
//
//	source := crossref.New(cfg, httpClient)
//	values, err := source.Lookup(ctx, "10.1000/xyz123")
package enrichsources

import (
	"context"

	"github.com/bibmerge/bibmerge/internal/domain"
)

// FieldValues maps canonical fields to the raw string values one source
// returned for a DOI. Set-valued fields are semicolon-separated. An absent
// key means the source had no value for that field.
type FieldValues map[domain.Field]string

// MetadataSource defines the interface that all metadata API clients must
// implement.
type MetadataSource interface {
	// Lookup retrieves the metadata a source holds for the given normalized
	// DOI. The returned map contains only fields the source actually had a
	// value for; it may be empty when the work is known but bare.
	//
	// Returns an error wrapping domain.ErrNotFound when the source does not
	// know the DOI, domain.ErrRateLimited on quota exhaustion, and
	// domain.ErrTransport on network or server failures. Implementations
	// must respect context cancellation and never retry internally; retry
	// policy belongs to the caller.
	Lookup(ctx context.Context, doi string) (FieldValues, error)

	// Name returns the source identifier used for provenance tags, logging
	// and configuration (e.g. "crossref").
	Name() string

	// IsEnabled returns whether this source is currently enabled and
	// available for lookups. A source may be disabled due to configuration
	// or a missing API key or contact email.
	IsEnabled() bool
}
