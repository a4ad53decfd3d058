package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibmerge/bibmerge/internal/dedup"
	"github.com/bibmerge/bibmerge/internal/domain"
)

func TestGradeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		missing float64
		want    Grade
	}{
		{0, GradeExcellent},
		{0.5, GradeVeryGood},
		{1, GradeGood},
		{4.9, GradeGood},
		{5, GradeAcceptable},
		{10, GradePoor},
		{20, GradeCritical},
		{87.5, GradeCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.missing), "missing %.1f%%", tt.missing)
	}
}

func TestCoverage(t *testing.T) {
	t.Parallel()

	records := []*domain.CanonicalRecord{
		{DOI: "10.1/a", Title: "First", Year: 2020},
		{DOI: "10.1/b", Title: "Second"},
		{DOI: "10.1/c"},
		{DOI: "10.1/d"},
	}

	coverage := Coverage(records)
	byField := make(map[domain.Field]FieldCoverage, len(coverage))
	for _, cov := range coverage {
		byField[cov.Field] = cov
	}

	assert.Equal(t, GradeExcellent, byField[domain.FieldDOI].Grade)

	title := byField[domain.FieldTitle]
	assert.Equal(t, 2, title.Filled)
	assert.Equal(t, 2, title.Missing)
	assert.InDelta(t, 50.0, title.MissingPercent, 1e-9)
	assert.Equal(t, GradeCritical, title.Grade)

	year := byField[domain.FieldYear]
	assert.Equal(t, 3, year.Missing)
	assert.Equal(t, GradeCritical, year.Grade)
}

func TestCoverageEmptyCollection(t *testing.T) {
	t.Parallel()

	for _, cov := range Coverage(nil) {
		assert.Zero(t, cov.Missing)
		assert.Equal(t, GradeExcellent, cov.Grade)
	}
}

func TestBuilderAccounting(t *testing.T) {
	t.Parallel()

	records := []*domain.CanonicalRecord{
		{DOI: "10.1/a", MemberRecordIDs: []uuid.UUID{uuid.New(), uuid.New()}},
		{DOI: "10.1/b", MemberRecordIDs: []uuid.UUID{uuid.New()}},
	}

	b := NewBuilder()
	b.SetDedup(dedup.Stats{InputRecords: 3, Clusters: 2, DegradedRecords: 1}, records)
	rep := b.Finish(records)

	require.NotNil(t, rep)
	assert.Equal(t, 3, rep.Accounting.InputRecords)
	assert.Equal(t, 2, rep.Accounting.CanonicalRecords)
	assert.Equal(t, 3, rep.Accounting.MemberRecords)
	assert.True(t, rep.Accounting.Balanced)
	assert.Equal(t, 1, rep.Accounting.DegradedRecords)
	assert.NotEmpty(t, rep.CoverageAfterMerge)
	assert.NotEmpty(t, rep.CoverageFinal)
	assert.False(t, rep.GeneratedAt.IsZero())
}

func TestBuilderDetectsUnbalancedRun(t *testing.T) {
	t.Parallel()

	records := []*domain.CanonicalRecord{
		{DOI: "10.1/a", MemberRecordIDs: []uuid.UUID{uuid.New()}},
	}

	b := NewBuilder()
	b.SetDedup(dedup.Stats{InputRecords: 2, Clusters: 1}, records)
	rep := b.Finish(records)

	assert.False(t, rep.Accounting.Balanced)
}
