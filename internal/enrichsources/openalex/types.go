package openalex

import (
	"sort"
	"strings"
)

// work is one OpenAlex work record.
type work struct {
	DOI                   string           `json:"doi"`
	Type                  string           `json:"type"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	Authorships           []authorship     `json:"authorships"`
	PublicationYear       int              `json:"publication_year"`
	HostVenue             hostVenue        `json:"host_venue"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Concepts              []concept        `json:"concepts"`
	CitedByCount          int              `json:"cited_by_count"`
	OpenAccess            openAccess       `json:"open_access"`
}

// authorship links one author to their institutions.
type authorship struct {
	Author       authorInfo    `json:"author"`
	Institutions []institution `json:"institutions"`
}

type authorInfo struct {
	DisplayName string `json:"display_name"`
}

type institution struct {
	DisplayName string `json:"display_name"`
}

type hostVenue struct {
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

type concept struct {
	DisplayName string `json:"display_name"`
}

type openAccess struct {
	IsOA   bool   `json:"is_oa"`
	Status string `json:"oa_status"`
	URL    string `json:"oa_url"`
}

// reconstructAbstract rebuilds the abstract text from OpenAlex's inverted
// index format, which maps words to their positions.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	const maxAbstractWords = 100_000
	totalPairs := 0
	for _, positions := range invertedIndex {
		totalPairs += len(positions)
	}
	// Guard against malicious payloads with excessive position entries.
	if totalPairs > maxAbstractWords {
		return ""
	}
	pairs := make([]posWord, 0, totalPairs)

	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	var builder strings.Builder
	builder.Grow(totalPairs * 7)
	for i, pair := range pairs {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(pair.word)
	}

	return builder.String()
}
