package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibmerge/bibmerge/internal/domain"
)

func TestMatchDOIDecides(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(ResolverConfig{})

	t.Run("same DOI wins over disagreeing fields", func(t *testing.T) {
		t.Parallel()
		a := &domain.BibRecord{DOI: "10.1000/xyz", Title: "A Completely Different Title", Year: 2018}
		b := &domain.BibRecord{DOI: "10.1000/xyz", Title: "Deep Learning Survey", Year: 2021}

		match := resolver.Match(a, b)
		assert.Equal(t, Exact, match.Verdict)
		assert.Equal(t, 1.0, match.Score)
	})

	t.Run("different DOIs rule the pair out", func(t *testing.T) {
		t.Parallel()
		a := &domain.BibRecord{DOI: "10.1000/xyz", Title: "Deep Learning Survey", Year: 2021}
		b := &domain.BibRecord{DOI: "10.1000/abc", Title: "Deep Learning Survey", Year: 2021}

		match := resolver.Match(a, b)
		assert.Equal(t, NoMatch, match.Verdict)
	})

	t.Run("missing DOI on both sides never yields exact", func(t *testing.T) {
		t.Parallel()
		a := &domain.BibRecord{Title: "Deep Learning Survey", Year: 2021}
		b := &domain.BibRecord{Title: "Deep Learning Survey", Year: 2021}

		match := resolver.Match(a, b)
		assert.Equal(t, Probable, match.Verdict)
	})
}

func TestMatchProbable(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(ResolverConfig{})

	tests := []struct {
		name    string
		a, b    *domain.BibRecord
		verdict Verdict
	}{
		{
			name: "near-identical titles with shared authors",
			a: &domain.BibRecord{
				Title:   "A Survey of Deep Learning for Graphs",
				Authors: []string{"Smith, John", "Garcia, Maria"},
				Year:    2021,
			},
			b: &domain.BibRecord{
				Title:   "A survey of deep learning for graphs.",
				Authors: []string{"J. Smith", "M. Garcia"},
				Year:    2021,
			},
			verdict: Probable,
		},
		{
			name: "year mismatch gates a merely similar title",
			a: &domain.BibRecord{
				Title:   "Optimization methods in machine learning systems",
				Authors: []string{"Smith, John"},
				Year:    2015,
			},
			b: &domain.BibRecord{
				Title:   "Optimization methods for machine learning",
				Authors: []string{"Smith, John"},
				Year:    2019,
			},
			verdict: NoMatch,
		},
		{
			name: "identical title forgives a year mismatch",
			a: &domain.BibRecord{
				Title:   "Optimization methods for machine learning",
				Authors: []string{"Smith, John"},
				Year:    2018,
			},
			b: &domain.BibRecord{
				Title:   "Optimization methods for machine learning",
				Authors: []string{"Smith, John"},
				Year:    2019,
			},
			verdict: Probable,
		},
		{
			name: "disjoint author sets drag the score below threshold",
			a: &domain.BibRecord{
				Title:   "A study of network effects",
				Authors: []string{"Smith, John", "Jones, Amy"},
				Year:    2020,
			},
			b: &domain.BibRecord{
				Title:   "A study on network effects",
				Authors: []string{"Chen, Wei", "Kumar, Ravi"},
				Year:    2020,
			},
			verdict: NoMatch,
		},
		{
			name: "missing authors fall back to title similarity alone",
			a: &domain.BibRecord{
				Title: "A study of network effects",
				Year:  2020,
			},
			b: &domain.BibRecord{
				Title:   "A study on network effects",
				Authors: []string{"Chen, Wei"},
				Year:    2020,
			},
			verdict: Probable,
		},
		{
			name:    "unrelated titles",
			a:       &domain.BibRecord{Title: "Quantum error correction codes", Year: 2020},
			b:       &domain.BibRecord{Title: "Soil erosion in coastal regions", Year: 2020},
			verdict: NoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			match := resolver.Match(tt.a, tt.b)
			assert.Equal(t, tt.verdict, match.Verdict, "score %f", match.Score)

			// Symmetric by construction.
			reverse := resolver.Match(tt.b, tt.a)
			assert.Equal(t, match.Verdict, reverse.Verdict)
			assert.InDelta(t, match.Score, reverse.Score, 1e-9)
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, TitleSimilarity("deep learning survey", "deep learning survey"))
	assert.Equal(t, 0.0, TitleSimilarity("", "deep learning survey"))

	// Small edit noise keeps similarity high.
	sim := TitleSimilarity("deep learning survey", "deep learning surveys")
	assert.Greater(t, sim, 0.9)

	// Token overlap rescues reordered titles that edit distance punishes.
	sim = TitleSimilarity("learning deep networks survey", "survey learning deep networks")
	assert.Equal(t, 1.0, sim)

	sim = TitleSimilarity("quantum error correction", "soil erosion dynamics")
	assert.Less(t, sim, 0.5)
}

func TestSurnameOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a, b     []string
		expected float64
	}{
		{
			name:     "equal sets across naming conventions",
			a:        []string{"Smith, John", "García, María"},
			b:        []string{"J. Smith", "M. Garcia"},
			expected: 1.0,
		},
		{
			name:     "half overlap",
			a:        []string{"Smith, John", "Jones, Amy", "Chen, Wei"},
			b:        []string{"Smith, John", "Kumar, Ravi", "Chen, Wei"},
			expected: 0.5,
		},
		{
			name:     "disjoint",
			a:        []string{"Smith, John"},
			b:        []string{"Chen, Wei"},
			expected: 0.0,
		},
		{
			name:     "empty side",
			a:        nil,
			b:        []string{"Smith, John"},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expected, SurnameOverlap(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.expected, SurnameOverlap(tt.b, tt.a), 1e-9)
		})
	}
}
