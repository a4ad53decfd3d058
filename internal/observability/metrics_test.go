package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_bibmerge_new")

	assert.NotNil(t, m.RecordsIngested)
	assert.NotNil(t, m.RecordsDegraded)
	assert.NotNil(t, m.DedupRuns)
	assert.NotNil(t, m.DedupClusters)
	assert.NotNil(t, m.DedupMatches)
	assert.NotNil(t, m.FieldsFilled)
	assert.NotNil(t, m.SourceRequestsTotal)
	assert.NotNil(t, m.SourceRequestsFailed)
	assert.NotNil(t, m.SourceRequestDuration)
	assert.NotNil(t, m.SourceRateLimited)
	assert.NotNil(t, m.EnrichmentAttempts)
	assert.NotNil(t, m.ModelsTrained)
	assert.NotNil(t, m.ModelsSkipped)
	assert.NotNil(t, m.PredictionsApplied)
}

func TestRecordIngested(t *testing.T) {
	m := NewMetrics("test_bibmerge_ingest")

	m.RecordIngested("scopus", 3)
	m.RecordIngested("wos", 2)
	m.RecordDegraded()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsIngested.WithLabelValues("scopus")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsIngested.WithLabelValues("wos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsDegraded))
}

func TestRecordDedupRun(t *testing.T) {
	m := NewMetrics("test_bibmerge_dedup")

	m.RecordDedupRun(10, 7, 2, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DedupMatches.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupMatches.WithLabelValues("probable")))
}

func TestRecordSourceRequests(t *testing.T) {
	m := NewMetrics("test_bibmerge_sources")

	m.RecordSourceRequest("crossref", 0.2)
	m.RecordSourceRequest("crossref", 0.1)
	m.RecordSourceRequestFailed("crossref", "transport")
	m.RecordSourceRateLimited("openalex")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceRequestsTotal.WithLabelValues("crossref")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequestsFailed.WithLabelValues("crossref", "transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRateLimited.WithLabelValues("openalex")))
}

func TestRecordModelLifecycle(t *testing.T) {
	m := NewMetrics("test_bibmerge_models")

	m.RecordModelTrained("subjectCategories")
	m.RecordModelSkipped("keywordsPlus")
	m.RecordPredictionApplied("subjectCategories")
	m.RecordFieldFilled("ml", "subjectCategories")
	m.RecordEnrichmentAttempt("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelsTrained.WithLabelValues("subjectCategories")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelsSkipped.WithLabelValues("keywordsPlus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsApplied.WithLabelValues("subjectCategories")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FieldsFilled.WithLabelValues("ml", "subjectCategories")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentAttempts.WithLabelValues("success")))
}
