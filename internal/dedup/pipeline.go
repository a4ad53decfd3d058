package dedup

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/observability"
)

// Stats summarizes one deduplication run.
type Stats struct {
	InputRecords    int `json:"inputRecords"`
	DegradedRecords int `json:"degradedRecords"`
	Clusters        int `json:"clusters"`
	Singletons      int `json:"singletons"`
	ExactMatches    int `json:"exactMatches"`
	ProbableMatches int `json:"probableMatches"`
}

// MergedRecords is the number of input records absorbed into an existing
// cluster rather than starting their own.
func (s Stats) MergedRecords() int {
	return s.InputRecords - s.Clusters
}

// cluster accumulates the members resolved to one work while the pipeline
// scans the input.
type cluster struct {
	members []*domain.BibRecord

	// confidence is the lowest score that admitted a member, 1.0 until a
	// probable match joins. It becomes the merge confidence.
	confidence float64
}

// Pipeline clusters an input batch into canonical records. Clustering is
// incremental: each record either joins the best-matching existing cluster or
// starts a new one. Candidate clusters are found through a DOI index and
// title-bigram blocks, so records are never compared against the whole batch.
type Pipeline struct {
	resolver *Resolver
	merger   *Merger
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewPipeline wires a deduplication pipeline from its parts.
func NewPipeline(resolver *Resolver, merger *Merger, logger zerolog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		merger:   merger,
		logger:   logger.With().Str("component", "dedup").Logger(),
		metrics:  metrics,
	}
}

// Run clusters and merges the batch. The result is deterministic for a given
// input order, and the per-cluster merge result is independent of the order
// in which members joined.
func (p *Pipeline) Run(records []*domain.BibRecord) ([]*domain.CanonicalRecord, Stats) {
	stats := Stats{InputRecords: len(records)}

	var clusters []*cluster
	byDOI := make(map[string]int)
	blocks := make(map[string][]int)

	for _, rec := range records {
		if rec.Degraded {
			stats.DegradedRecords++
		}

		idx, match := p.bestCluster(rec, clusters, byDOI, blocks)
		if idx < 0 {
			idx = len(clusters)
			clusters = append(clusters, &cluster{confidence: 1.0})
		} else {
			switch match.Verdict {
			case Exact:
				stats.ExactMatches++
			case Probable:
				stats.ProbableMatches++
				if match.Score < clusters[idx].confidence {
					clusters[idx].confidence = match.Score
				}
			}
		}

		clusters[idx].members = append(clusters[idx].members, rec)
		if rec.HasDOI() {
			if _, ok := byDOI[rec.DOI]; !ok {
				byDOI[rec.DOI] = idx
			}
		}
		for _, key := range blockKeys(rec.Title) {
			blocks[key] = appendClusterID(blocks[key], idx)
		}
	}

	canonical := make([]*domain.CanonicalRecord, 0, len(clusters))
	for _, cl := range clusters {
		if len(cl.members) == 1 {
			stats.Singletons++
		}
		canonical = append(canonical, p.merger.Merge(cl.members, cl.confidence))
	}
	stats.Clusters = len(canonical)

	if p.metrics != nil {
		p.metrics.RecordDedupRun(stats.InputRecords, stats.Clusters, stats.ExactMatches, stats.ProbableMatches)
	}
	p.logger.Info().
		Int("input_records", stats.InputRecords).
		Int("clusters", stats.Clusters).
		Int("exact_matches", stats.ExactMatches).
		Int("probable_matches", stats.ProbableMatches).
		Int("degraded_records", stats.DegradedRecords).
		Msg("deduplication complete")

	return canonical, stats
}

// bestCluster finds the best-matching candidate cluster for rec. Returns -1
// when no candidate matches. Exact beats Probable; among equal verdicts the
// higher score wins, and the earlier cluster breaks remaining ties so the
// outcome is stable.
func (p *Pipeline) bestCluster(rec *domain.BibRecord, clusters []*cluster, byDOI map[string]int, blocks map[string][]int) (int, Match) {
	candidates := p.candidateClusters(rec, byDOI, blocks)

	bestIdx := -1
	var best Match
	for _, idx := range candidates {
		match := p.matchCluster(rec, clusters[idx])
		if match.Verdict == NoMatch {
			continue
		}
		if bestIdx < 0 || match.Verdict > best.Verdict ||
			(match.Verdict == best.Verdict && match.Score > best.Score) {
			bestIdx, best = idx, match
		}
	}
	return bestIdx, best
}

// candidateClusters returns the cluster ids sharing rec's DOI or at least one
// title bigram, in ascending id order.
func (p *Pipeline) candidateClusters(rec *domain.BibRecord, byDOI map[string]int, blocks map[string][]int) []int {
	seen := make(map[int]bool)
	var ids []int

	add := func(idx int) {
		if !seen[idx] {
			seen[idx] = true
			ids = append(ids, idx)
		}
	}

	if rec.HasDOI() {
		if idx, ok := byDOI[rec.DOI]; ok {
			add(idx)
		}
	}
	for _, key := range blockKeys(rec.Title) {
		for _, idx := range blocks[key] {
			add(idx)
		}
	}

	sort.Ints(ids)
	return ids
}

// matchCluster scores rec against every member and keeps the strongest match.
func (p *Pipeline) matchCluster(rec *domain.BibRecord, cl *cluster) Match {
	var best Match
	for _, member := range cl.members {
		match := p.resolver.Match(rec, member)
		if match.Verdict == Exact {
			return match
		}
		if match.Verdict > best.Verdict ||
			(match.Verdict == best.Verdict && match.Score > best.Score) {
			best = match
		}
	}
	return best
}

// blockKeys derives the blocking keys for a title: consecutive token bigrams
// of the normalized title, or the single token for one-word titles. The
// blocking is approximate: very short titles that differ inside every bigram
// can miss, which only costs recall, never a wrong merge.
func blockKeys(title string) []string {
	tokens := strings.Fields(domain.NormalizeTitle(title))
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) == 1 {
		return tokens
	}
	keys := make([]string, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		keys = append(keys, tokens[i]+" "+tokens[i+1])
	}
	return keys
}

// appendClusterID appends idx to a block list unless it is already the last
// entry. Block lists are built in ascending order, so checking the tail is
// enough to avoid runs of duplicates from one record's repeated bigrams.
func appendClusterID(ids []int, idx int) []int {
	if n := len(ids); n > 0 && ids[n-1] == idx {
		return ids
	}
	return append(ids, idx)
}
