package dedup

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/bibmerge/bibmerge/internal/domain"
)

// Verdict is the outcome of comparing two records for identity.
type Verdict int

// Identity verdicts, ordered by confidence.
const (
	// NoMatch means the records denote different works.
	NoMatch Verdict = iota
	// Probable means the records likely denote the same work, based on
	// title similarity, author overlap and year proximity.
	Probable
	// Exact means both records carry the same normalized DOI.
	Exact
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Exact:
		return "exact"
	case Probable:
		return "probable"
	default:
		return "no_match"
	}
}

// Match is the result of an identity comparison. Score is 1.0 for Exact
// verdicts and the combined similarity score otherwise.
type Match struct {
	Verdict Verdict
	Score   float64
}

// ResolverConfig tunes the probable-match policy. The cutoffs are policy
// decisions, not correctness decisions; defaults follow the documented
// baseline and every value is configurable.
type ResolverConfig struct {
	// ProbableThreshold is the minimum combined score for a Probable verdict.
	ProbableThreshold float64

	// NearIdenticalTitle is the title similarity above which a year mismatch
	// is forgiven (export years disagree on online-first publications).
	NearIdenticalTitle float64

	// YearTolerance is the allowed absolute difference between publication
	// years. The default 0 requires an exact year match unless titles are
	// near-identical.
	YearTolerance int

	// TitleWeight and AuthorWeight combine title similarity and author
	// overlap into the probable score. When either record has no authors the
	// score falls back to title similarity alone.
	TitleWeight  float64
	AuthorWeight float64
}

func (c *ResolverConfig) applyDefaults() {
	if c.ProbableThreshold == 0 {
		c.ProbableThreshold = 0.80
	}
	if c.NearIdenticalTitle == 0 {
		c.NearIdenticalTitle = 0.95
	}
	if c.TitleWeight == 0 && c.AuthorWeight == 0 {
		c.TitleWeight = 0.7
		c.AuthorWeight = 0.3
	}
}

// Resolver decides whether two BibRecords denote the same work.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a Resolver with the given configuration, applying
// defaults for unset fields.
func NewResolver(cfg ResolverConfig) *Resolver {
	cfg.applyDefaults()
	return &Resolver{cfg: cfg}
}

// Match compares two records and returns a verdict.
//
// DOI equality always wins: two records with the same normalized non-empty
// DOI are the same work even if every other field disagrees. Two records
// with differing non-empty DOIs are distinct works. When either side lacks a
// DOI the decision falls through to probable scoring; an empty DOI on both
// sides never yields Exact.
func (r *Resolver) Match(a, b *domain.BibRecord) Match {
	if a.HasDOI() && b.HasDOI() {
		if a.DOI == b.DOI {
			return Match{Verdict: Exact, Score: 1.0}
		}
		return Match{Verdict: NoMatch}
	}
	return r.probable(a, b)
}

// probable scores a candidate pair without a usable DOI comparison.
func (r *Resolver) probable(a, b *domain.BibRecord) Match {
	titleSim := TitleSimilarity(domain.NormalizeTitle(a.Title), domain.NormalizeTitle(b.Title))
	if titleSim == 0 {
		return Match{Verdict: NoMatch}
	}

	// Year gate: both years known and too far apart rules the pair out
	// unless the titles are near-identical.
	if a.Year != 0 && b.Year != 0 {
		diff := a.Year - b.Year
		if diff < 0 {
			diff = -diff
		}
		if diff > r.cfg.YearTolerance && titleSim < r.cfg.NearIdenticalTitle {
			return Match{Verdict: NoMatch, Score: titleSim}
		}
	}

	score := titleSim
	if len(a.Authors) > 0 && len(b.Authors) > 0 {
		overlap := SurnameOverlap(a.Authors, b.Authors)
		score = r.cfg.TitleWeight*titleSim + r.cfg.AuthorWeight*overlap
	}

	if score >= r.cfg.ProbableThreshold {
		return Match{Verdict: Probable, Score: score}
	}
	return Match{Verdict: NoMatch, Score: score}
}

// TitleSimilarity scores two normalized titles in [0, 1] as the better of a
// Levenshtein ratio and a token Jaccard overlap. Edit distance catches small
// OCR and punctuation noise; token overlap catches reordered or
// prefixed/suffixed export titles.
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	editSim := 1.0 - float64(dist)/float64(longer)
	if editSim < 0 {
		editSim = 0
	}

	tokenSim := tokenJaccard(a, b)
	if tokenSim > editSim {
		return tokenSim
	}
	return editSim
}

// tokenJaccard computes the Jaccard overlap of the titles' token sets.
func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	matched := 0
	for tok := range setA {
		if setB[tok] {
			matched++
		}
	}
	union := len(setA) + len(setB) - matched
	return float64(matched) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
