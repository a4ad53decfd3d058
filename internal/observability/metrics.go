package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the merge pipeline.
// Metrics are organized by phase: deduplication, metadata enrichment, and
// predictive enrichment. All counters and histograms are registered via
// promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// RecordsIngested counts input records read, labeled by source.
	RecordsIngested *prometheus.CounterVec

	// RecordsDegraded counts input records that failed field normalization.
	RecordsDegraded prometheus.Counter

	// DedupRuns counts deduplication runs.
	DedupRuns prometheus.Counter

	// DedupClusters observes the number of clusters produced per run.
	DedupClusters prometheus.Histogram

	// DedupMatches counts identity matches, labeled by verdict.
	DedupMatches *prometheus.CounterVec

	// FieldsFilled counts canonical fields filled, labeled by phase
	// ("merge", "api", "ml") and field.
	FieldsFilled *prometheus.CounterVec

	// SourceRequestsTotal counts HTTP requests to metadata APIs, labeled by source.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to metadata APIs,
	// labeled by source and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to metadata APIs in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from metadata APIs, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// EnrichmentAttempts counts per-record enrichment attempts, labeled by outcome.
	EnrichmentAttempts *prometheus.CounterVec

	// ModelsTrained counts predictive models trained, labeled by field.
	ModelsTrained *prometheus.CounterVec

	// ModelsSkipped counts predictive models skipped for lack of training
	// data, labeled by field.
	ModelsSkipped *prometheus.CounterVec

	// PredictionsApplied counts records whose fields were filled by
	// prediction, labeled by field.
	PredictionsApplied *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RecordsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Total number of input records read by source",
		}, []string{"source"}),
		RecordsDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_degraded_total",
			Help:      "Total number of input records with normalization failures",
		}),

		DedupRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_runs_total",
			Help:      "Total number of deduplication runs",
		}),
		DedupClusters: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dedup_clusters",
			Help:      "Number of clusters produced per deduplication run",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
		DedupMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_matches_total",
			Help:      "Total number of identity matches by verdict",
		}, []string{"verdict"}),

		FieldsFilled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_filled_total",
			Help:      "Total number of canonical fields filled by phase and field",
		}, []string{"phase", "field"}),

		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to metadata APIs",
		}, []string{"source"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to metadata APIs",
		}, []string{"source", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to metadata APIs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from metadata APIs",
		}, []string{"source"}),

		EnrichmentAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_attempts_total",
			Help:      "Total number of enrichment attempts by outcome",
		}, []string{"outcome"}),

		ModelsTrained: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "models_trained_total",
			Help:      "Total number of predictive models trained by field",
		}, []string{"field"}),
		ModelsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "models_skipped_total",
			Help:      "Total number of predictive models skipped for lack of training data",
		}, []string{"field"}),
		PredictionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_applied_total",
			Help:      "Total number of records filled by prediction by field",
		}, []string{"field"}),
	}
}

// RecordIngested records input records read from a source export.
func (m *Metrics) RecordIngested(source string, count int) {
	m.RecordsIngested.WithLabelValues(source).Add(float64(count))
}

// RecordDegraded records an input record with normalization failures.
func (m *Metrics) RecordDegraded() {
	m.RecordsDegraded.Inc()
}

// RecordDedupRun records the outcome of one deduplication run.
func (m *Metrics) RecordDedupRun(inputRecords, clusters, exactMatches, probableMatches int) {
	m.DedupRuns.Inc()
	m.DedupClusters.Observe(float64(clusters))
	m.DedupMatches.WithLabelValues("exact").Add(float64(exactMatches))
	m.DedupMatches.WithLabelValues("probable").Add(float64(probableMatches))
}

// RecordFieldFilled records a canonical field filled by the given phase.
func (m *Metrics) RecordFieldFilled(phase, field string) {
	m.FieldsFilled.WithLabelValues(phase, field).Inc()
}

// RecordSourceRequest records a request to a metadata API.
func (m *Metrics) RecordSourceRequest(source string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source).Inc()
	m.SourceRequestDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a metadata API.
func (m *Metrics) RecordSourceRequestFailed(source, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a metadata API.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordEnrichmentAttempt records the final outcome of one record enrichment.
func (m *Metrics) RecordEnrichmentAttempt(outcome string) {
	m.EnrichmentAttempts.WithLabelValues(outcome).Inc()
}

// RecordModelTrained records a predictive model trained for a field.
func (m *Metrics) RecordModelTrained(field string) {
	m.ModelsTrained.WithLabelValues(field).Inc()
}

// RecordModelSkipped records a predictive model skipped for a field.
func (m *Metrics) RecordModelSkipped(field string) {
	m.ModelsSkipped.WithLabelValues(field).Inc()
}

// RecordPredictionApplied records a record filled by prediction for a field.
func (m *Metrics) RecordPredictionApplied(field string) {
	m.PredictionsApplied.WithLabelValues(field).Inc()
}
