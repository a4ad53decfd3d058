// Package pipeline runs the merge phases in order over one mutable
// collection: deduplication, category completion, API enrichment, predictive
// enrichment, and a final category completion over whatever the enrichment
// phases added.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bibmerge/bibmerge/internal/dedup"
	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrich"
	"github.com/bibmerge/bibmerge/internal/predict"
	"github.com/bibmerge/bibmerge/internal/report"
)

// Runner executes the merge phases sequentially.
type Runner struct {
	dedup        *dedup.Pipeline
	merger       *dedup.Merger
	orchestrator *enrich.Orchestrator
	engine       *predict.Engine
	logger       zerolog.Logger
}

// NewRunner wires a runner from the phase implementations.
func NewRunner(
	dedupPipeline *dedup.Pipeline,
	merger *dedup.Merger,
	orchestrator *enrich.Orchestrator,
	engine *predict.Engine,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		dedup:        dedupPipeline,
		merger:       merger,
		orchestrator: orchestrator,
		engine:       engine,
		logger:       logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run merges the input collection and enriches the result. The merged
// collection and the run report are returned together; enrichment failures on
// individual records are recorded in the report, not returned as errors.
func (r *Runner) Run(ctx context.Context, records []*domain.BibRecord) ([]*domain.CanonicalRecord, *report.Report, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty input collection: %w", domain.ErrIrrecoverableInput)
	}

	builder := report.NewBuilder()

	merged, dedupStats := r.dedup.Run(records)
	completed := r.completeCategories(merged)
	builder.SetDedup(dedupStats, merged)
	r.logger.Info().
		Int("clusters", dedupStats.Clusters).
		Int("categories_completed", completed).
		Msg("deduplication phase done")

	enrichStats, journal, err := r.orchestrator.Run(ctx, merged)
	if err != nil {
		return nil, nil, fmt.Errorf("enrichment phase: %w", err)
	}
	builder.SetEnrichment(enrichStats, journal)

	predictStats := r.engine.Run(merged)
	builder.SetPrediction(predictStats)

	// Enrichment may have filled one category taxonomy and not the other.
	r.completeCategories(merged)

	rep := builder.Finish(merged)
	rep.Log(r.logger)
	return merged, rep, nil
}

// completeCategories cross-fills the two category taxonomies on every record
// and returns how many records were touched.
func (r *Runner) completeCategories(records []*domain.CanonicalRecord) int {
	completed := 0
	for _, rec := range records {
		if r.merger.CompleteCategories(rec) {
			completed++
		}
	}
	return completed
}
