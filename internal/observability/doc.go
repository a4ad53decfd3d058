// Package observability provides logging and metrics support for the merge
// pipeline.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for ingest, deduplication, enrichment and prediction
//   - Context helpers for propagating run identity
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stderr",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("doi", doi).Msg("record merged")
//
// Add record context to a logger:
//
//	logger = observability.WithRecordContext(logger, recordID, doi)
//
// # Metrics
//
// Initialize metrics (promauto registers them with the default registry):
//
//	metrics := observability.NewMetrics("bibmerge")
//	metrics.RecordIngested("scopus", n)
//	metrics.RecordSourceRequest("crossref", elapsed.Seconds())
//
// # Standard Fields
//
// Common fields used across the pipeline:
//
//   - run_id: Pipeline run identifier
//   - record_id: Record identifier
//   - doi: Normalized DOI
//   - source: Metadata source (crossref, openalex, etc.)
//   - field: Canonical field name
//   - component: Emitting package
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
