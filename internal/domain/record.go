// Package domain defines the canonical bibliographic record model shared by
// the deduplication, enrichment and prediction phases.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Source identifies the citation database a BibRecord was exported from.
type Source string

// Known record sources.
const (
	SourceScopus Source = "scopus"
	SourceWos    Source = "wos"
)

// Field identifies one canonical slot of a bibliographic record.
type Field string

// Canonical record fields.
const (
	FieldDOI               Field = "doi"
	FieldTitle             Field = "title"
	FieldAuthors           Field = "authors"
	FieldYear              Field = "year"
	FieldVenue             Field = "venue"
	FieldVolume            Field = "volume"
	FieldIssue             Field = "issue"
	FieldDocumentType      Field = "documentType"
	FieldLanguage          Field = "language"
	FieldKeywordsAuthor    Field = "keywordsAuthor"
	FieldKeywordsPlus      Field = "keywordsPlus"
	FieldSubjectCategories Field = "subjectCategories"
	FieldWosCategories     Field = "wosCategories"
	FieldAbstract          Field = "abstract"
	FieldCitationCount     Field = "citationCount"
	FieldAffiliations      Field = "affiliations"
	FieldFundingInfo       Field = "fundingInfo"
	FieldOpenAccessStatus  Field = "openAccessStatus"
	FieldURLs              Field = "urls"
)

// setFields are the fields merged by lossless union.
var setFields = map[Field]bool{
	FieldAuthors:           true,
	FieldKeywordsAuthor:    true,
	FieldKeywordsPlus:      true,
	FieldSubjectCategories: true,
	FieldWosCategories:     true,
	FieldAffiliations:      true,
	FieldURLs:              true,
}

// IsSetValued reports whether the field holds a set of values rather than a scalar.
func (f Field) IsSetValued() bool {
	return setFields[f]
}

// EnrichableFields lists the fields the enrichment orchestrator may fill,
// in a stable order used for reporting.
func EnrichableFields() []Field {
	return []Field{
		FieldDocumentType,
		FieldTitle,
		FieldAuthors,
		FieldYear,
		FieldVenue,
		FieldVolume,
		FieldIssue,
		FieldLanguage,
		FieldKeywordsAuthor,
		FieldKeywordsPlus,
		FieldSubjectCategories,
		FieldWosCategories,
		FieldAbstract,
		FieldCitationCount,
		FieldAffiliations,
		FieldOpenAccessStatus,
		FieldURLs,
	}
}

// PredictableFields lists the fields the predictive enrichment engine may fill.
func PredictableFields() []Field {
	return []Field{
		FieldKeywordsAuthor,
		FieldKeywordsPlus,
		FieldSubjectCategories,
		FieldWosCategories,
	}
}

// BibRecord is one bibliographic work as seen from one source export.
// The DOI is stored normalized (see NormalizeDOI); all other text fields are
// kept as exported, with normalization applied on comparison.
type BibRecord struct {
	ID                uuid.UUID
	Source            Source
	DOI               string
	Title             string
	Authors           []string
	Year              int // 0 when absent
	Venue             string
	Volume            string
	Issue             string
	DocumentType      string
	Language          string
	KeywordsAuthor    []string
	KeywordsPlus      []string
	SubjectCategories []string
	WosCategories     []string
	Abstract          string
	CitationCount     int
	Affiliations      []string
	FundingInfo       string
	OpenAccessStatus  string
	URLs              []string

	// RawFields holds exported fields with no canonical slot, keyed by the
	// export field name.
	RawFields map[string]string

	// Degraded marks a record that failed normalization of one or more
	// fields during ingest. Degraded records are still clustered and merged.
	Degraded bool
}

// HasDOI reports whether the record carries a usable DOI.
func (r *BibRecord) HasDOI() bool {
	return strings.TrimSpace(r.DOI) != ""
}

// CitationCount is a per-source citation count. Counts from different
// databases are not comparable and are never summed.
type CitationCount struct {
	Source Source `json:"source"`
	Count  int    `json:"count"`
}

// Contribution is one value a member record (or enrichment source)
// contributed to a canonical field. The full contribution history makes the
// merge lossless: values not selected as canonical remain inspectable.
type Contribution struct {
	Origin Provenance `json:"origin"`
	Value  string     `json:"value"`
}

// CanonicalRecord is the result of merging one or more BibRecords believed to
// denote the same work. It is created once per resolved cluster and then
// mutated in place by the enrichment phases, which only ever fill empty
// fields.
type CanonicalRecord struct {
	ID                uuid.UUID
	DOI               string
	Title             string
	Authors           []string
	Year              int
	Venue             string
	Volume            string
	Issue             string
	DocumentType      string
	Language          string
	KeywordsAuthor    []string
	KeywordsPlus      []string
	SubjectCategories []string
	WosCategories     []string
	Abstract          string
	Affiliations      []string
	FundingInfo       string
	OpenAccessStatus  string
	URLs              []string

	// CitationCounts keeps the per-source counts; BestCitation is the
	// maximum across sources together with the source that produced it.
	CitationCounts map[Source]int
	BestCitation   CitationCount

	// RawFields merges the members' uncanonical export fields.
	RawFields map[string]string

	// Provenance records which source or process determined each field's
	// final value.
	Provenance map[Field]Provenance

	// History records every non-empty value contributed to each field.
	History map[Field][]Contribution

	MemberRecordIDs []uuid.UUID
	MergeConfidence float64
	Degraded        bool
}

// FieldEmpty reports whether the canonical slot for f currently has no value.
func (c *CanonicalRecord) FieldEmpty(f Field) bool {
	switch f {
	case FieldDOI:
		return c.DOI == ""
	case FieldTitle:
		return c.Title == ""
	case FieldAuthors:
		return len(c.Authors) == 0
	case FieldYear:
		return c.Year == 0
	case FieldVenue:
		return c.Venue == ""
	case FieldVolume:
		return c.Volume == ""
	case FieldIssue:
		return c.Issue == ""
	case FieldDocumentType:
		return c.DocumentType == ""
	case FieldLanguage:
		return c.Language == ""
	case FieldKeywordsAuthor:
		return len(c.KeywordsAuthor) == 0
	case FieldKeywordsPlus:
		return len(c.KeywordsPlus) == 0
	case FieldSubjectCategories:
		return len(c.SubjectCategories) == 0
	case FieldWosCategories:
		return len(c.WosCategories) == 0
	case FieldAbstract:
		return c.Abstract == ""
	case FieldCitationCount:
		return c.BestCitation.Count == 0
	case FieldAffiliations:
		return len(c.Affiliations) == 0
	case FieldFundingInfo:
		return c.FundingInfo == ""
	case FieldOpenAccessStatus:
		return c.OpenAccessStatus == ""
	case FieldURLs:
		return len(c.URLs) == 0
	default:
		return true
	}
}

// ApplyValue fills the canonical slot for f from a raw string value when the
// slot is empty, tagging it with the given provenance and recording the
// contribution in the history. Set-valued fields accept semicolon-separated
// lists. Existing non-empty values are never replaced; the call then only
// records history and returns false.
func (c *CanonicalRecord) ApplyValue(f Field, raw string, origin Provenance) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	c.recordContribution(f, raw, origin)
	if !c.FieldEmpty(f) {
		return false
	}

	switch f {
	case FieldDOI:
		c.DOI = NormalizeDOI(raw)
	case FieldTitle:
		c.Title = raw
	case FieldAuthors:
		c.Authors = SplitList(raw)
	case FieldYear:
		year, err := ParseYear(raw)
		if err != nil {
			return false
		}
		c.Year = year
	case FieldVenue:
		c.Venue = raw
	case FieldVolume:
		c.Volume = raw
	case FieldIssue:
		c.Issue = raw
	case FieldDocumentType:
		c.DocumentType = raw
	case FieldLanguage:
		c.Language = raw
	case FieldKeywordsAuthor:
		c.KeywordsAuthor = SplitList(raw)
	case FieldKeywordsPlus:
		c.KeywordsPlus = SplitList(raw)
	case FieldSubjectCategories:
		c.SubjectCategories = SplitList(raw)
	case FieldWosCategories:
		c.WosCategories = SplitList(raw)
	case FieldAbstract:
		c.Abstract = raw
	case FieldCitationCount:
		count, err := ParseCount(raw)
		if err != nil || count <= 0 {
			return false
		}
		c.BestCitation = CitationCount{Source: Source(origin), Count: count}
	case FieldAffiliations:
		c.Affiliations = SplitList(raw)
	case FieldFundingInfo:
		c.FundingInfo = raw
	case FieldOpenAccessStatus:
		c.OpenAccessStatus = raw
	case FieldURLs:
		c.URLs = SplitList(raw)
	default:
		return false
	}

	c.setProvenance(f, origin)
	return true
}

// ApplyLabels fills a set-valued field with predicted labels when the field
// is empty. Returns false when the field already has values or f is not
// set-valued.
func (c *CanonicalRecord) ApplyLabels(f Field, labels []string, origin Provenance) bool {
	if len(labels) == 0 || !f.IsSetValued() || !c.FieldEmpty(f) {
		return false
	}
	c.recordContribution(f, JoinList(labels), origin)
	switch f {
	case FieldKeywordsAuthor:
		c.KeywordsAuthor = labels
	case FieldKeywordsPlus:
		c.KeywordsPlus = labels
	case FieldSubjectCategories:
		c.SubjectCategories = labels
	case FieldWosCategories:
		c.WosCategories = labels
	default:
		return false
	}
	c.setProvenance(f, origin)
	return true
}

// Labels returns the current values of a set-valued field.
func (c *CanonicalRecord) Labels(f Field) []string {
	switch f {
	case FieldAuthors:
		return c.Authors
	case FieldKeywordsAuthor:
		return c.KeywordsAuthor
	case FieldKeywordsPlus:
		return c.KeywordsPlus
	case FieldSubjectCategories:
		return c.SubjectCategories
	case FieldWosCategories:
		return c.WosCategories
	case FieldAffiliations:
		return c.Affiliations
	case FieldURLs:
		return c.URLs
	default:
		return nil
	}
}

// TextBasis concatenates title, abstract and any existing keyword fields into
// the textual feature basis used by the predictive enrichment engine.
func (c *CanonicalRecord) TextBasis() string {
	parts := make([]string, 0, 4)
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if c.Abstract != "" {
		parts = append(parts, c.Abstract)
	}
	if len(c.KeywordsAuthor) > 0 {
		parts = append(parts, strings.Join(c.KeywordsAuthor, " "))
	}
	if len(c.KeywordsPlus) > 0 {
		parts = append(parts, strings.Join(c.KeywordsPlus, " "))
	}
	return strings.Join(parts, " ")
}

func (c *CanonicalRecord) setProvenance(f Field, origin Provenance) {
	if c.Provenance == nil {
		c.Provenance = make(map[Field]Provenance)
	}
	c.Provenance[f] = origin
}

func (c *CanonicalRecord) recordContribution(f Field, value string, origin Provenance) {
	if c.History == nil {
		c.History = make(map[Field][]Contribution)
	}
	c.History[f] = append(c.History[f], Contribution{Origin: origin, Value: value})
}
