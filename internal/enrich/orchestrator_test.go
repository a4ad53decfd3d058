package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
)

// scriptedSource returns canned responses in sequence, repeating the last one.
type scriptedSource struct {
	name      string
	responses []lookupResponse
	calls     int
}

type lookupResponse struct {
	values enrichsources.FieldValues
	err    error
}

func (s *scriptedSource) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	resp := s.responses[idx]
	return resp.values, resp.err
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) IsEnabled() bool { return true }

func newTestOrchestrator(t *testing.T, sources ...enrichsources.MetadataSource) *Orchestrator {
	t.Helper()
	registry := enrichsources.NewRegistry()
	for _, source := range sources {
		registry.Register(source)
	}
	o := NewOrchestrator(registry, Config{Concurrency: 1}, zerolog.Nop(), nil)
	o.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return o
}

func testRecord() *domain.CanonicalRecord {
	return &domain.CanonicalRecord{
		ID:    uuid.New(),
		DOI:   "10.1000/xyz",
		Title: "Deep Learning Survey",
	}
}

func TestRunFallsBackAcrossSources(t *testing.T) {
	t.Parallel()

	// First source stays rate limited through every retry; the second one
	// has the metadata.
	limited := &scriptedSource{
		name: "crossref",
		responses: []lookupResponse{
			{err: &domain.RateLimitError{Source: "crossref"}},
		},
	}
	working := &scriptedSource{
		name: "openalex",
		responses: []lookupResponse{
			{values: enrichsources.FieldValues{
				domain.FieldAbstract: "An abstract.",
				domain.FieldYear:     "2021",
			}},
		},
	}

	o := newTestOrchestrator(t, limited, working)
	rec := testRecord()

	stats, journal, err := o.Run(context.Background(), []*domain.CanonicalRecord{rec})
	require.NoError(t, err)

	// Initial attempt plus MaxRetries before giving up.
	assert.Equal(t, 4, limited.calls)

	require.Len(t, journal, 2)
	assert.Equal(t, OutcomeRateLimited, journal[0].Outcome)
	assert.Equal(t, 3, journal[0].Retries)
	assert.Equal(t, OutcomeSuccess, journal[1].Outcome)
	assert.ElementsMatch(t, []domain.Field{domain.FieldAbstract, domain.FieldYear}, journal[1].FieldsFilled)

	assert.Equal(t, "An abstract.", rec.Abstract)
	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, domain.APIProvenance("openalex"), rec.Provenance[domain.FieldAbstract])

	assert.Equal(t, 1, stats.RecordsEnriched)
	assert.Equal(t, 1, stats.Outcomes[OutcomeRateLimited])
	assert.Equal(t, 1, stats.Outcomes[OutcomeSuccess])
	assert.Equal(t, 1, stats.FieldsFilled[domain.FieldAbstract])
}

func TestRunNeverOverwrites(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{
		name: "crossref",
		responses: []lookupResponse{
			{values: enrichsources.FieldValues{
				domain.FieldTitle:    "A Different Title",
				domain.FieldAbstract: "An abstract.",
			}},
		},
	}

	o := newTestOrchestrator(t, source)
	rec := testRecord()

	_, journal, err := o.Run(context.Background(), []*domain.CanonicalRecord{rec})
	require.NoError(t, err)

	// The existing title survives; only the empty abstract is filled.
	assert.Equal(t, "Deep Learning Survey", rec.Title)
	assert.Equal(t, "An abstract.", rec.Abstract)
	require.Len(t, journal, 1)
	assert.Equal(t, []domain.Field{domain.FieldAbstract}, journal[0].FieldsFilled)
}

func TestRunSkipsRecordsWithoutDOI(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{
		name:      "crossref",
		responses: []lookupResponse{{values: enrichsources.FieldValues{}}},
	}

	o := newTestOrchestrator(t, source)
	rec := testRecord()
	rec.DOI = ""

	stats, journal, err := o.Run(context.Background(), []*domain.CanonicalRecord{rec})
	require.NoError(t, err)

	assert.Equal(t, 0, source.calls)
	assert.Empty(t, journal)
	assert.Equal(t, 1, stats.RecordsSkipped)
}

func TestRunNotFoundMovesToNextSource(t *testing.T) {
	t.Parallel()

	missing := &scriptedSource{
		name: "crossref",
		responses: []lookupResponse{
			{err: &domain.NotFoundError{Source: "crossref", DOI: "10.1000/xyz"}},
		},
	}
	working := &scriptedSource{
		name: "openalex",
		responses: []lookupResponse{
			{values: enrichsources.FieldValues{domain.FieldAbstract: "An abstract."}},
		},
	}

	o := newTestOrchestrator(t, missing, working)
	rec := testRecord()

	_, journal, err := o.Run(context.Background(), []*domain.CanonicalRecord{rec})
	require.NoError(t, err)

	require.Len(t, journal, 2)
	assert.Equal(t, OutcomeNotFound, journal[0].Outcome)
	assert.Equal(t, 1, missing.calls)
	assert.Equal(t, OutcomeSuccess, journal[1].Outcome)
}

func TestRunStopsWhenNothingLeftToFill(t *testing.T) {
	t.Parallel()

	first := &scriptedSource{
		name: "crossref",
		responses: []lookupResponse{
			{values: fullValues()},
		},
	}
	second := &scriptedSource{
		name:      "openalex",
		responses: []lookupResponse{{values: enrichsources.FieldValues{}}},
	}

	o := newTestOrchestrator(t, first, second)
	rec := testRecord()

	_, journal, err := o.Run(context.Background(), []*domain.CanonicalRecord{rec})
	require.NoError(t, err)

	// The second source is never consulted once every field is populated.
	assert.Equal(t, 0, second.calls)
	require.Len(t, journal, 1)
	assert.Equal(t, OutcomeSuccess, journal[0].Outcome)
}

func TestRunJournalAndSourceRollup(t *testing.T) {
	t.Parallel()

	missing := &scriptedSource{
		name: "crossref",
		responses: []lookupResponse{
			{err: &domain.NotFoundError{Source: "crossref", DOI: "10.1000/xyz"}},
		},
	}
	working := &scriptedSource{
		name: "openalex",
		responses: []lookupResponse{
			{values: enrichsources.FieldValues{
				domain.FieldAbstract: "An abstract.",
				domain.FieldYear:     "2021",
			}},
		},
	}

	o := newTestOrchestrator(t, missing, working)
	frozen := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return frozen }

	stats, journal, err := o.Run(context.Background(), []*domain.CanonicalRecord{testRecord()})
	require.NoError(t, err)

	// Every journal entry carries its finish time.
	require.Len(t, journal, 2)
	for _, entry := range journal {
		assert.Equal(t, frozen, entry.Timestamp)
	}

	require.Contains(t, stats.BySource, "crossref")
	require.Contains(t, stats.BySource, "openalex")

	crossref := stats.BySource["crossref"]
	assert.Equal(t, 1, crossref.Attempts)
	assert.Equal(t, 1, crossref.NotFound)
	assert.Empty(t, crossref.FieldsFilled)

	openalex := stats.BySource["openalex"]
	assert.Equal(t, 1, openalex.Attempts)
	assert.Equal(t, 1, openalex.Successes)
	assert.Equal(t, 1, openalex.FieldsFilled[domain.FieldAbstract])
	assert.Equal(t, 1, openalex.FieldsFilled[domain.FieldYear])
}

// fullValues populates every enrichable field.
func fullValues() enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)
	for _, field := range domain.EnrichableFields() {
		switch field {
		case domain.FieldYear:
			values[field] = "2021"
		case domain.FieldCitationCount:
			values[field] = "12"
		default:
			values[field] = "value"
		}
	}
	return values
}
