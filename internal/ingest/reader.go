// Package ingest reads JSON-lines record exports into the canonical
// intermediate shape. One line is one record; field values arrive either as
// JSON arrays or as semicolon-separated strings depending on the exporter.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/observability"
)

// maxLineSize bounds a single input line. Abstracts run long but not this
// long.
const maxLineSize = 4 * 1024 * 1024

// stringList decodes either a JSON array of strings or a single
// semicolon-separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*l = domain.SplitList(joined)
	return nil
}

// flexString decodes either a JSON string or a bare number into a string.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// line is the wire shape of one exported record.
type line struct {
	ID                string            `json:"id"`
	Source            string            `json:"source"`
	DOI               string            `json:"doi"`
	Title             string            `json:"title"`
	Authors           stringList        `json:"authors"`
	Year              flexString        `json:"year"`
	Venue             string            `json:"venue"`
	Volume            flexString        `json:"volume"`
	Issue             flexString        `json:"issue"`
	DocumentType      string            `json:"documentType"`
	Language          string            `json:"language"`
	KeywordsAuthor    stringList        `json:"keywordsAuthor"`
	KeywordsPlus      stringList        `json:"keywordsPlus"`
	SubjectCategories stringList        `json:"subjectCategories"`
	WosCategories     stringList        `json:"wosCategories"`
	Abstract          string            `json:"abstract"`
	CitationCount     flexString        `json:"citationCount"`
	Affiliations      stringList        `json:"affiliations"`
	FundingInfo       string            `json:"fundingInfo"`
	OpenAccessStatus  string            `json:"openAccessStatus"`
	URLs              stringList        `json:"urls"`
	Raw               map[string]string `json:"raw"`
}

// Reader turns a JSON-lines stream into records.
type Reader struct {
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewReader wires an ingest reader.
func NewReader(logger zerolog.Logger, metrics *observability.Metrics) *Reader {
	return &Reader{
		logger:  logger.With().Str("component", "ingest").Logger(),
		metrics: metrics,
	}
}

// Read decodes the whole stream. A line that is not valid JSON makes the
// input irrecoverable and aborts the read; a field that fails normalization
// only marks its record degraded, and degraded records still flow through the
// pipeline.
func (r *Reader) Read(src io.Reader) ([]*domain.BibRecord, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var records []*domain.BibRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var ln line
		if err := json.Unmarshal([]byte(text), &ln); err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", lineNo, err, domain.ErrIrrecoverableInput)
		}

		rec := r.toRecord(lineNo, &ln)
		records = append(records, rec)
		if r.metrics != nil {
			r.metrics.RecordIngested(string(rec.Source), 1)
			if rec.Degraded {
				r.metrics.RecordDegraded()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %v: %w", lineNo+1, err, domain.ErrIrrecoverableInput)
	}

	r.logger.Info().Int("records", len(records)).Msg("ingest complete")
	return records, nil
}

// toRecord normalizes one decoded line into a record.
func (r *Reader) toRecord(lineNo int, ln *line) *domain.BibRecord {
	rec := &domain.BibRecord{
		Source:            domain.Source(strings.ToLower(strings.TrimSpace(ln.Source))),
		DOI:               domain.NormalizeDOI(ln.DOI),
		Title:             strings.TrimSpace(ln.Title),
		Authors:           ln.Authors,
		Venue:             strings.TrimSpace(ln.Venue),
		Volume:            strings.TrimSpace(string(ln.Volume)),
		Issue:             strings.TrimSpace(string(ln.Issue)),
		DocumentType:      strings.TrimSpace(ln.DocumentType),
		Language:          strings.TrimSpace(ln.Language),
		KeywordsAuthor:    ln.KeywordsAuthor,
		KeywordsPlus:      ln.KeywordsPlus,
		SubjectCategories: ln.SubjectCategories,
		WosCategories:     ln.WosCategories,
		Abstract:          strings.TrimSpace(ln.Abstract),
		Affiliations:      ln.Affiliations,
		FundingInfo:       strings.TrimSpace(ln.FundingInfo),
		OpenAccessStatus:  strings.TrimSpace(ln.OpenAccessStatus),
		URLs:              ln.URLs,
		RawFields:         ln.Raw,
	}

	if id, err := uuid.Parse(ln.ID); err == nil {
		rec.ID = id
	} else {
		rec.ID = uuid.New()
	}

	logger := observability.WithRecordContext(r.logger, rec.ID.String(), rec.DOI)

	if string(ln.Year) != "" {
		year, err := domain.ParseYear(string(ln.Year))
		if err != nil {
			rec.Degraded = true
			logger.Warn().Int("line", lineNo).Err(err).Msg("year failed normalization")
		} else {
			rec.Year = year
		}
	}

	if string(ln.CitationCount) != "" {
		count, err := domain.ParseCount(string(ln.CitationCount))
		if err != nil {
			rec.Degraded = true
			logger.Warn().Int("line", lineNo).Err(err).Msg("citation count failed normalization")
		} else {
			rec.CitationCount = count
		}
	}

	return rec
}
