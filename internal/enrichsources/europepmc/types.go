package europepmc

// searchResponse is the envelope of the Europe PMC search endpoint.
type searchResponse struct {
	ResultList resultList `json:"resultList"`
}

type resultList struct {
	Result []result `json:"result"`
}

// result is one Europe PMC search hit.
type result struct {
	DOI             string          `json:"doi"`
	PubType         string          `json:"pubType"`
	Title           string          `json:"title"`
	AuthorString    string          `json:"authorString"`
	JournalTitle    string          `json:"journalTitle"`
	JournalVolume   string          `json:"journalVolume"`
	JournalIssue    string          `json:"journalIssue"`
	PubYear         string          `json:"pubYear"`
	AbstractText    string          `json:"abstractText"`
	SourceURL       string          `json:"sourceUrl"`
	FullTextURLList fullTextURLList `json:"fullTextUrlList"`
	CitedByCount    int             `json:"citedByCount"`
	IsOpenAccess    string          `json:"isOpenAccess"`
}

type fullTextURLList struct {
	FullTextURL []fullTextURL `json:"fullTextUrl"`
}

type fullTextURL struct {
	URL string `json:"url"`
}
