// Package report assembles the run report: phase statistics, the enrichment
// journal, per-field coverage with a status grade, and the record accounting
// that proves no input record was silently lost.
package report

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bibmerge/bibmerge/internal/dedup"
	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrich"
	"github.com/bibmerge/bibmerge/internal/predict"
)

// Grade labels how complete a field is across the collection.
type Grade string

// Coverage grades, from no missing values to more than a fifth missing.
const (
	GradeExcellent  Grade = "excellent"
	GradeVeryGood   Grade = "very good"
	GradeGood       Grade = "good"
	GradeAcceptable Grade = "acceptable"
	GradePoor       Grade = "poor"
	GradeCritical   Grade = "critical"
)

// GradeFor maps a missing percentage onto a grade.
func GradeFor(missingPercent float64) Grade {
	switch {
	case missingPercent == 0:
		return GradeExcellent
	case missingPercent < 1:
		return GradeVeryGood
	case missingPercent < 5:
		return GradeGood
	case missingPercent < 10:
		return GradeAcceptable
	case missingPercent < 20:
		return GradePoor
	default:
		return GradeCritical
	}
}

// FieldCoverage is the fill state of one field across the collection.
type FieldCoverage struct {
	Field          domain.Field `json:"field"`
	Filled         int          `json:"filled"`
	Missing        int          `json:"missing"`
	MissingPercent float64      `json:"missingPercent"`
	Grade          Grade        `json:"grade"`
}

// coverageFields lists every reported field in a stable order.
func coverageFields() []domain.Field {
	fields := []domain.Field{domain.FieldDOI}
	fields = append(fields, domain.EnrichableFields()...)
	return append(fields, domain.FieldFundingInfo)
}

// Coverage computes per-field coverage over the collection.
func Coverage(records []*domain.CanonicalRecord) []FieldCoverage {
	total := len(records)
	out := make([]FieldCoverage, 0, len(coverageFields()))
	for _, field := range coverageFields() {
		missing := 0
		for _, rec := range records {
			if rec.FieldEmpty(field) {
				missing++
			}
		}
		cov := FieldCoverage{
			Field:   field,
			Filled:  total - missing,
			Missing: missing,
		}
		if total > 0 {
			cov.MissingPercent = float64(missing) / float64(total) * 100
		}
		cov.Grade = GradeFor(cov.MissingPercent)
		out = append(out, cov)
	}
	return out
}

// Accounting balances input records against merged cluster membership. A run
// where members do not add up to the input has dropped records somewhere.
type Accounting struct {
	InputRecords     int  `json:"inputRecords"`
	DegradedRecords  int  `json:"degradedRecords"`
	CanonicalRecords int  `json:"canonicalRecords"`
	MemberRecords    int  `json:"memberRecords"`
	Balanced         bool `json:"balanced"`
}

// Report is the full run report, serializable as JSON.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`

	Dedup      dedup.Stats   `json:"dedup"`
	Accounting Accounting    `json:"accounting"`
	Enrichment enrich.Stats  `json:"enrichment"`
	Prediction predict.Stats `json:"prediction"`

	// Journal lists every enrichment attempt, filled fields included, in
	// attempt order.
	Journal []enrich.JournalEntry `json:"journal"`

	// Coverage snapshots bracket the enrichment phases.
	CoverageAfterMerge []FieldCoverage `json:"coverageAfterMerge"`
	CoverageFinal      []FieldCoverage `json:"coverageFinal"`
}

// Builder accumulates phase outputs into a report.
type Builder struct {
	report Report
}

// NewBuilder starts an empty report.
func NewBuilder() *Builder {
	return &Builder{report: Report{GeneratedAt: time.Now().UTC()}}
}

// SetDedup records the deduplication outcome and the post-merge coverage
// snapshot.
func (b *Builder) SetDedup(stats dedup.Stats, records []*domain.CanonicalRecord) {
	b.report.Dedup = stats
	b.report.CoverageAfterMerge = Coverage(records)

	acc := Accounting{
		InputRecords:     stats.InputRecords,
		DegradedRecords:  stats.DegradedRecords,
		CanonicalRecords: len(records),
	}
	for _, rec := range records {
		acc.MemberRecords += len(rec.MemberRecordIDs)
	}
	acc.Balanced = acc.MemberRecords == acc.InputRecords
	b.report.Accounting = acc
}

// SetEnrichment records the API enrichment outcome and its journal.
func (b *Builder) SetEnrichment(stats enrich.Stats, journal []enrich.JournalEntry) {
	b.report.Enrichment = stats
	b.report.Journal = journal
}

// SetPrediction records the predictive enrichment outcome.
func (b *Builder) SetPrediction(stats predict.Stats) {
	b.report.Prediction = stats
}

// Finish takes the final coverage snapshot and returns the report.
func (b *Builder) Finish(records []*domain.CanonicalRecord) *Report {
	b.report.CoverageFinal = Coverage(records)
	return &b.report
}

// Log writes a one-line summary of the report.
func (r *Report) Log(logger zerolog.Logger) {
	worst := 0
	for _, cov := range r.CoverageFinal {
		if cov.Grade == GradeCritical {
			worst++
		}
	}
	logger.Info().
		Int("input_records", r.Accounting.InputRecords).
		Int("canonical_records", r.Accounting.CanonicalRecords).
		Bool("balanced", r.Accounting.Balanced).
		Int("records_enriched", r.Enrichment.RecordsEnriched).
		Int("records_predicted", r.Prediction.RecordsFilled).
		Int("critical_fields", worst).
		Msg("run complete")
}
