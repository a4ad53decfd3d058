// Package export writes the merged collection as a tab-separated table using
// the two-letter column tags bibliometric tools expect, or as JSON with full
// provenance and contribution history.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/report"
)

// tsvColumns are the exported columns in order, tagged the way tab-delimited
// bibliometric exports tag them.
var tsvColumns = []string{
	"AU", "TI", "SO", "LA", "DT", "DE", "ID", "AB", "C1", "FU",
	"TC", "PY", "VL", "IS", "DI", "WC", "SC", "OA", "UR",
}

// tsvRow renders one record in column order.
func tsvRow(rec *domain.CanonicalRecord) []string {
	year := ""
	if rec.Year != 0 {
		year = strconv.Itoa(rec.Year)
	}
	count := ""
	if rec.BestCitation.Count != 0 {
		count = strconv.Itoa(rec.BestCitation.Count)
	}
	return []string{
		domain.JoinList(rec.Authors),
		rec.Title,
		rec.Venue,
		rec.Language,
		rec.DocumentType,
		domain.JoinList(rec.KeywordsAuthor),
		domain.JoinList(rec.KeywordsPlus),
		rec.Abstract,
		domain.JoinList(rec.Affiliations),
		rec.FundingInfo,
		count,
		year,
		rec.Volume,
		rec.Issue,
		rec.DOI,
		domain.JoinList(rec.WosCategories),
		domain.JoinList(rec.SubjectCategories),
		rec.OpenAccessStatus,
		domain.JoinList(rec.URLs),
	}
}

// WriteTSV writes the collection as a tab-separated table with a header row.
func WriteTSV(w io.Writer, records []*domain.CanonicalRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(tsvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(tsvRow(rec)); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonRecord is the JSON view of a merged record.
type jsonRecord struct {
	ID                uuid.UUID                             `json:"id"`
	DOI               string                                `json:"doi,omitempty"`
	Title             string                                `json:"title,omitempty"`
	Authors           []string                              `json:"authors,omitempty"`
	Year              int                                   `json:"year,omitempty"`
	Venue             string                                `json:"venue,omitempty"`
	Volume            string                                `json:"volume,omitempty"`
	Issue             string                                `json:"issue,omitempty"`
	DocumentType      string                                `json:"documentType,omitempty"`
	Language          string                                `json:"language,omitempty"`
	KeywordsAuthor    []string                              `json:"keywordsAuthor,omitempty"`
	KeywordsPlus      []string                              `json:"keywordsPlus,omitempty"`
	SubjectCategories []string                              `json:"subjectCategories,omitempty"`
	WosCategories     []string                              `json:"wosCategories,omitempty"`
	Abstract          string                                `json:"abstract,omitempty"`
	Affiliations      []string                              `json:"affiliations,omitempty"`
	FundingInfo       string                                `json:"fundingInfo,omitempty"`
	OpenAccessStatus  string                                `json:"openAccessStatus,omitempty"`
	URLs              []string                              `json:"urls,omitempty"`
	CitationCounts    map[domain.Source]int                 `json:"citationCounts,omitempty"`
	BestCitation      domain.CitationCount                  `json:"bestCitation"`
	RawFields         map[string]string                     `json:"rawFields,omitempty"`
	Provenance        map[domain.Field]domain.Provenance    `json:"provenance,omitempty"`
	History           map[domain.Field][]domain.Contribution `json:"history,omitempty"`
	MemberRecordIDs   []uuid.UUID                           `json:"memberRecordIds,omitempty"`
	MergeConfidence   float64                               `json:"mergeConfidence"`
	Degraded          bool                                  `json:"degraded,omitempty"`
}

func toJSONRecord(rec *domain.CanonicalRecord) jsonRecord {
	return jsonRecord{
		ID:                rec.ID,
		DOI:               rec.DOI,
		Title:             rec.Title,
		Authors:           rec.Authors,
		Year:              rec.Year,
		Venue:             rec.Venue,
		Volume:            rec.Volume,
		Issue:             rec.Issue,
		DocumentType:      rec.DocumentType,
		Language:          rec.Language,
		KeywordsAuthor:    rec.KeywordsAuthor,
		KeywordsPlus:      rec.KeywordsPlus,
		SubjectCategories: rec.SubjectCategories,
		WosCategories:     rec.WosCategories,
		Abstract:          rec.Abstract,
		Affiliations:      rec.Affiliations,
		FundingInfo:       rec.FundingInfo,
		OpenAccessStatus:  rec.OpenAccessStatus,
		URLs:              rec.URLs,
		CitationCounts:    rec.CitationCounts,
		BestCitation:      rec.BestCitation,
		RawFields:         rec.RawFields,
		Provenance:        rec.Provenance,
		History:           rec.History,
		MemberRecordIDs:   rec.MemberRecordIDs,
		MergeConfidence:   rec.MergeConfidence,
		Degraded:          rec.Degraded,
	}
}

// WriteJSON writes the collection as a JSON array with provenance and
// history.
func WriteJSON(w io.Writer, records []*domain.CanonicalRecord) error {
	views := make([]jsonRecord, 0, len(records))
	for _, rec := range records {
		views = append(views, toJSONRecord(rec))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// WriteReport writes the run report as indented JSON.
func WriteReport(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
