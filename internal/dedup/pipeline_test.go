package dedup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibmerge/bibmerge/internal/domain"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(
		NewResolver(ResolverConfig{}),
		NewMerger(MergerConfig{}),
		zerolog.Nop(),
		nil,
	)
}

func TestPipelineClustersByDOI(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	records := []*domain.BibRecord{
		{
			ID:     uuid.New(),
			Source: domain.SourceScopus,
			DOI:    "10.1000/xyz",
			Title:  "Deep Learning Survey",
			Year:   2021,
		},
		{
			ID:     uuid.New(),
			Source: domain.SourceWos,
			DOI:    "10.1000/xyz",
			Title:  "Deep learning survey",
			Year:   2021,
		},
		{
			ID:     uuid.New(),
			Source: domain.SourceWos,
			DOI:    "10.1000/other",
			Title:  "Soil Erosion in Coastal Regions",
			Year:   2019,
		},
	}

	canonical, stats := p.Run(records)

	require.Len(t, canonical, 2)
	assert.Equal(t, 3, stats.InputRecords)
	assert.Equal(t, 2, stats.Clusters)
	assert.Equal(t, 1, stats.ExactMatches)
	assert.Equal(t, 0, stats.ProbableMatches)
	assert.Equal(t, 1, stats.Singletons)
	assert.Equal(t, 1, stats.MergedRecords())

	// The DOI-exact cluster merges with full confidence.
	var merged *domain.CanonicalRecord
	for _, rec := range canonical {
		if rec.DOI == "10.1000/xyz" {
			merged = rec
		}
	}
	require.NotNil(t, merged)
	assert.Len(t, merged.MemberRecordIDs, 2)
	assert.Equal(t, 1.0, merged.MergeConfidence)
}

func TestPipelineClustersProbableMatches(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	records := []*domain.BibRecord{
		{
			ID:      uuid.New(),
			Source:  domain.SourceScopus,
			Title:   "A Survey of Deep Learning for Graphs",
			Authors: []string{"Smith, John", "Garcia, Maria"},
			Year:    2021,
		},
		{
			ID:      uuid.New(),
			Source:  domain.SourceWos,
			Title:   "A survey of deep learning for graphs",
			Authors: []string{"J. Smith", "M. Garcia"},
			Year:    2021,
		},
	}

	canonical, stats := p.Run(records)

	require.Len(t, canonical, 1)
	assert.Equal(t, 1, stats.ProbableMatches)
	assert.Len(t, canonical[0].MemberRecordIDs, 2)

	// Confidence is the score of the weakest admitted member.
	assert.Greater(t, canonical[0].MergeConfidence, 0.8)
	assert.LessOrEqual(t, canonical[0].MergeConfidence, 1.0)
}

func TestPipelineKeepsDistinctDOIsApart(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()

	// Same title and year, different DOIs: two distinct works (errata,
	// re-publications). DOI disagreement must win.
	records := []*domain.BibRecord{
		{
			ID:     uuid.New(),
			Source: domain.SourceScopus,
			DOI:    "10.1000/v1",
			Title:  "Deep Learning Survey",
			Year:   2021,
		},
		{
			ID:     uuid.New(),
			Source: domain.SourceWos,
			DOI:    "10.1000/v2",
			Title:  "Deep Learning Survey",
			Year:   2021,
		},
	}

	canonical, stats := p.Run(records)
	assert.Len(t, canonical, 2)
	assert.Equal(t, 0, stats.ExactMatches)
	assert.Equal(t, 0, stats.ProbableMatches)
}

func TestPipelineDeterministic(t *testing.T) {
	t.Parallel()

	build := func() []*domain.BibRecord {
		return []*domain.BibRecord{
			{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Source: domain.SourceScopus,
				DOI: "10.1/a", Title: "Graph Neural Networks", Year: 2020},
			{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Source: domain.SourceWos,
				DOI: "10.1/a", Title: "Graph neural networks", Year: 2020},
			{ID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), Source: domain.SourceWos,
				Title: "Reinforcement Learning Basics", Authors: []string{"Chen, Wei"}, Year: 2018},
			{ID: uuid.MustParse("00000000-0000-0000-0000-000000000004"), Source: domain.SourceScopus,
				Title: "Reinforcement learning basics", Authors: []string{"W. Chen"}, Year: 2018},
		}
	}

	p := newTestPipeline()
	first, firstStats := p.Run(build())
	second, secondStats := p.Run(build())

	assert.Equal(t, firstStats, secondStats)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].DOI, second[i].DOI)
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].MergeConfidence, second[i].MergeConfidence)
	}
}

func TestPipelineCountsDegraded(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()
	records := []*domain.BibRecord{
		{ID: uuid.New(), Source: domain.SourceScopus, Title: "Some Title", Year: 2020, Degraded: true},
	}

	canonical, stats := p.Run(records)
	assert.Equal(t, 1, stats.DegradedRecords)
	require.Len(t, canonical, 1)
	assert.True(t, canonical[0].Degraded)
}
