package dedup

import (
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/bibmerge/bibmerge/internal/domain"
)

// MergerConfig tunes the field-merge policy.
type MergerConfig struct {
	// SourcePriority is the tie-break order for scalar fields; earlier
	// sources win. Defaults to Scopus before Web of Science.
	SourcePriority []domain.Source

	// NearDuplicateText is the normalized-similarity threshold above which
	// two free-text values are considered the same text, letting source
	// priority rather than length pick the winner.
	NearDuplicateText float64
}

func (c *MergerConfig) applyDefaults() {
	if len(c.SourcePriority) == 0 {
		c.SourcePriority = []domain.Source{domain.SourceScopus, domain.SourceWos}
	}
	if c.NearDuplicateText == 0 {
		c.NearDuplicateText = 0.95
	}
}

// Merger combines the member records of one resolved cluster into a single
// CanonicalRecord. The outcome depends only on the member set, never on the
// order records were clustered in, which makes the merge commutative and
// associative.
type Merger struct {
	cfg MergerConfig
}

// NewMerger creates a Merger with the given configuration, applying defaults
// for unset fields.
func NewMerger(cfg MergerConfig) *Merger {
	cfg.applyDefaults()
	return &Merger{cfg: cfg}
}

// Merge produces the canonical record for one cluster. confidence is the
// identity-match score that triggered the merge (1.0 for DOI-exact clusters
// and singletons).
func (m *Merger) Merge(members []*domain.BibRecord, confidence float64) *domain.CanonicalRecord {
	ordered := m.orderMembers(members)

	rec := &domain.CanonicalRecord{
		ID:              uuid.New(),
		CitationCounts:  make(map[domain.Source]int),
		RawFields:       make(map[string]string),
		Provenance:      make(map[domain.Field]domain.Provenance),
		History:         make(map[domain.Field][]domain.Contribution),
		MergeConfidence: confidence,
	}

	for _, member := range ordered {
		rec.MemberRecordIDs = append(rec.MemberRecordIDs, member.ID)
		if member.Degraded {
			rec.Degraded = true
		}
	}

	m.mergeScalars(rec, ordered)
	m.mergeFreeText(rec, ordered)
	m.mergeSets(rec, ordered)
	m.mergeCitations(rec, ordered)
	m.mergeRawFields(rec, ordered)

	return rec
}

// CompleteCategories cross-fills the subject-category and WoS-category sets
// from each other when exactly one of them is empty. Returns true when a
// fill happened.
func (m *Merger) CompleteCategories(rec *domain.CanonicalRecord) bool {
	scEmpty := len(rec.SubjectCategories) == 0
	wcEmpty := len(rec.WosCategories) == 0

	switch {
	case scEmpty && !wcEmpty:
		rec.SubjectCategories = append([]string(nil), rec.WosCategories...)
		rec.Provenance[domain.FieldSubjectCategories] = domain.ProvenanceMerged
		return true
	case wcEmpty && !scEmpty:
		rec.WosCategories = append([]string(nil), rec.SubjectCategories...)
		rec.Provenance[domain.FieldWosCategories] = domain.ProvenanceMerged
		return true
	default:
		return false
	}
}

// orderMembers returns the members in canonical merge order: source priority
// first, then DOI, title, abstract, venue, and finally the record ID. The
// order is total over record content, so every per-field policy is
// independent of cluster formation order.
func (m *Merger) orderMembers(members []*domain.BibRecord) []*domain.BibRecord {
	rank := make(map[domain.Source]int, len(m.cfg.SourcePriority))
	for i, src := range m.cfg.SourcePriority {
		rank[src] = i
	}
	unranked := len(m.cfg.SourcePriority)

	ordered := append([]*domain.BibRecord(nil), members...)
	sort.Slice(ordered, func(i, j int) bool {
		ri, ok := rank[ordered[i].Source]
		if !ok {
			ri = unranked
		}
		rj, ok := rank[ordered[j].Source]
		if !ok {
			rj = unranked
		}
		if ri != rj {
			return ri < rj
		}
		if ordered[i].DOI != ordered[j].DOI {
			return ordered[i].DOI < ordered[j].DOI
		}
		if ordered[i].Title != ordered[j].Title {
			return ordered[i].Title < ordered[j].Title
		}
		if ordered[i].Abstract != ordered[j].Abstract {
			return ordered[i].Abstract < ordered[j].Abstract
		}
		if ordered[i].Venue != ordered[j].Venue {
			return ordered[i].Venue < ordered[j].Venue
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})
	return ordered
}

// mergeScalars applies the first-non-empty-by-priority policy to the
// single-valued identity and descriptive fields.
func (m *Merger) mergeScalars(rec *domain.CanonicalRecord, ordered []*domain.BibRecord) {
	type scalar struct {
		field domain.Field
		get   func(*domain.BibRecord) string
		set   func(*domain.CanonicalRecord, string)
	}
	scalars := []scalar{
		{domain.FieldDOI, func(r *domain.BibRecord) string { return r.DOI },
			func(c *domain.CanonicalRecord, v string) { c.DOI = v }},
		{domain.FieldVolume, func(r *domain.BibRecord) string { return r.Volume },
			func(c *domain.CanonicalRecord, v string) { c.Volume = v }},
		{domain.FieldIssue, func(r *domain.BibRecord) string { return r.Issue },
			func(c *domain.CanonicalRecord, v string) { c.Issue = v }},
		{domain.FieldDocumentType, func(r *domain.BibRecord) string { return r.DocumentType },
			func(c *domain.CanonicalRecord, v string) { c.DocumentType = v }},
		{domain.FieldLanguage, func(r *domain.BibRecord) string { return r.Language },
			func(c *domain.CanonicalRecord, v string) { c.Language = v }},
		{domain.FieldFundingInfo, func(r *domain.BibRecord) string { return r.FundingInfo },
			func(c *domain.CanonicalRecord, v string) { c.FundingInfo = v }},
		{domain.FieldOpenAccessStatus, func(r *domain.BibRecord) string { return r.OpenAccessStatus },
			func(c *domain.CanonicalRecord, v string) { c.OpenAccessStatus = v }},
	}

	for _, s := range scalars {
		for _, member := range ordered {
			value := s.get(member)
			if value == "" {
				continue
			}
			rec.History[s.field] = append(rec.History[s.field],
				domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: value})
			if rec.FieldEmpty(s.field) {
				s.set(rec, value)
				rec.Provenance[s.field] = domain.SourceProvenance(member.Source)
			}
		}
	}

	// Year follows the same policy with its integer representation.
	for _, member := range ordered {
		if member.Year == 0 {
			continue
		}
		rec.History[domain.FieldYear] = append(rec.History[domain.FieldYear],
			domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: strconv.Itoa(member.Year)})
		if rec.Year == 0 {
			rec.Year = member.Year
			rec.Provenance[domain.FieldYear] = domain.SourceProvenance(member.Source)
		}
	}

	// Authors are an ordered sequence, not a union: take the full list from
	// the highest-priority member that has one.
	for _, member := range ordered {
		if len(member.Authors) == 0 {
			continue
		}
		rec.History[domain.FieldAuthors] = append(rec.History[domain.FieldAuthors],
			domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: domain.JoinList(member.Authors)})
		if len(rec.Authors) == 0 {
			rec.Authors = append([]string(nil), member.Authors...)
			rec.Provenance[domain.FieldAuthors] = domain.SourceProvenance(member.Source)
		}
	}

	// Affiliations follow the authors they describe.
	for _, member := range ordered {
		if len(member.Affiliations) == 0 {
			continue
		}
		rec.History[domain.FieldAffiliations] = append(rec.History[domain.FieldAffiliations],
			domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: domain.JoinList(member.Affiliations)})
		if len(rec.Affiliations) == 0 {
			rec.Affiliations = append([]string(nil), member.Affiliations...)
			rec.Provenance[domain.FieldAffiliations] = domain.SourceProvenance(member.Source)
		}
	}
}

// mergeFreeText applies the longest-wins policy to title, abstract and venue.
// Longer export text usually means less truncation. When two values are the
// same text modulo normalization, source priority picks the winner instead.
func (m *Merger) mergeFreeText(rec *domain.CanonicalRecord, ordered []*domain.BibRecord) {
	type freeText struct {
		field domain.Field
		get   func(*domain.BibRecord) string
		set   func(*domain.CanonicalRecord, string)
	}
	texts := []freeText{
		{domain.FieldTitle, func(r *domain.BibRecord) string { return r.Title },
			func(c *domain.CanonicalRecord, v string) { c.Title = v }},
		{domain.FieldAbstract, func(r *domain.BibRecord) string { return r.Abstract },
			func(c *domain.CanonicalRecord, v string) { c.Abstract = v }},
		{domain.FieldVenue, func(r *domain.BibRecord) string { return r.Venue },
			func(c *domain.CanonicalRecord, v string) { c.Venue = v }},
	}

	for _, ft := range texts {
		var winner *domain.BibRecord
		var winnerValue string

		for _, member := range ordered {
			value := ft.get(member)
			if value == "" {
				continue
			}
			rec.History[ft.field] = append(rec.History[ft.field],
				domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: value})

			switch {
			case winner == nil:
				winner, winnerValue = member, value
			case len(value) > len(winnerValue):
				// Keep the higher-priority near-duplicate; take genuinely
				// longer text otherwise.
				sim := TitleSimilarity(domain.NormalizeTitle(winnerValue), domain.NormalizeTitle(value))
				if sim < m.cfg.NearDuplicateText {
					winner, winnerValue = member, value
				}
			}
		}

		if winner != nil {
			ft.set(rec, winnerValue)
			rec.Provenance[ft.field] = domain.SourceProvenance(winner.Source)
		}
	}
}

// mergeSets applies the lossless-union policy to the keyword, category and
// URL sets. Values are deduplicated case-insensitively, keeping the first
// spelling in canonical member order.
func (m *Merger) mergeSets(rec *domain.CanonicalRecord, ordered []*domain.BibRecord) {
	type setField struct {
		field domain.Field
		get   func(*domain.BibRecord) []string
		set   func(*domain.CanonicalRecord, []string)
	}
	sets := []setField{
		{domain.FieldKeywordsAuthor, func(r *domain.BibRecord) []string { return r.KeywordsAuthor },
			func(c *domain.CanonicalRecord, v []string) { c.KeywordsAuthor = v }},
		{domain.FieldKeywordsPlus, func(r *domain.BibRecord) []string { return r.KeywordsPlus },
			func(c *domain.CanonicalRecord, v []string) { c.KeywordsPlus = v }},
		{domain.FieldSubjectCategories, func(r *domain.BibRecord) []string { return r.SubjectCategories },
			func(c *domain.CanonicalRecord, v []string) { c.SubjectCategories = v }},
		{domain.FieldWosCategories, func(r *domain.BibRecord) []string { return r.WosCategories },
			func(c *domain.CanonicalRecord, v []string) { c.WosCategories = v }},
		{domain.FieldURLs, func(r *domain.BibRecord) []string { return r.URLs },
			func(c *domain.CanonicalRecord, v []string) { c.URLs = v }},
	}

	for _, sf := range sets {
		seen := make(map[string]bool)
		var union []string
		var contributors []domain.Source

		for _, member := range ordered {
			values := sf.get(member)
			if len(values) == 0 {
				continue
			}
			rec.History[sf.field] = append(rec.History[sf.field],
				domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: domain.JoinList(values)})
			contributors = append(contributors, member.Source)

			for _, value := range values {
				key := domain.NormalizeKeyword(value)
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				union = append(union, value)
			}
		}

		if len(union) == 0 {
			continue
		}
		sf.set(rec, union)
		if distinctSources(contributors) > 1 {
			rec.Provenance[sf.field] = domain.ProvenanceMerged
		} else {
			rec.Provenance[sf.field] = domain.SourceProvenance(contributors[0])
		}
	}
}

// mergeCitations keeps counts per source and records the maximum as the best
// count, tagged with the source that produced it.
func (m *Merger) mergeCitations(rec *domain.CanonicalRecord, ordered []*domain.BibRecord) {
	for _, member := range ordered {
		if member.CitationCount <= 0 {
			continue
		}
		rec.History[domain.FieldCitationCount] = append(rec.History[domain.FieldCitationCount],
			domain.Contribution{Origin: domain.SourceProvenance(member.Source), Value: strconv.Itoa(member.CitationCount)})

		if member.CitationCount > rec.CitationCounts[member.Source] {
			rec.CitationCounts[member.Source] = member.CitationCount
		}
		if member.CitationCount > rec.BestCitation.Count {
			rec.BestCitation = domain.CitationCount{Source: member.Source, Count: member.CitationCount}
			rec.Provenance[domain.FieldCitationCount] = domain.SourceProvenance(member.Source)
		}
	}
}

// mergeRawFields unions the uncanonical export fields, first value per key
// winning in canonical member order.
func (m *Merger) mergeRawFields(rec *domain.CanonicalRecord, ordered []*domain.BibRecord) {
	for _, member := range ordered {
		for key, value := range member.RawFields {
			if value == "" {
				continue
			}
			if _, ok := rec.RawFields[key]; !ok {
				rec.RawFields[key] = value
			}
		}
	}
}

func distinctSources(sources []domain.Source) int {
	seen := make(map[domain.Source]bool, len(sources))
	for _, s := range sources {
		seen[s] = true
	}
	return len(seen)
}

