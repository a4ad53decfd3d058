package semanticscholar

// paper is one Semantic Scholar paper record.
type paper struct {
	ExternalIDs   externalIDs `json:"externalIds"`
	Title         string      `json:"title"`
	Authors       []author    `json:"authors"`
	Abstract      string      `json:"abstract"`
	Year          int         `json:"year"`
	CitationCount int         `json:"citationCount"`
	URL           string      `json:"url"`
	FieldsOfStudy []string    `json:"fieldsOfStudy"`
}

type externalIDs struct {
	DOI string `json:"DOI"`
}

type author struct {
	Name string `json:"name"`
}
