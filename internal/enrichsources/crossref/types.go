package crossref

import "strings"

// worksResponse is the envelope of the CrossRef works endpoint.
type worksResponse struct {
	Message work `json:"message"`
}

// work is one CrossRef work record.
type work struct {
	DOI            string      `json:"DOI"`
	Type           string      `json:"type"`
	Title          []string    `json:"title"`
	ContainerTitle []string    `json:"container-title"`
	Authors        []author    `json:"author"`
	Issued         partialDate `json:"issued"`
	Volume         string      `json:"volume"`
	Issue          string      `json:"issue"`
	Abstract       string      `json:"abstract"`
	URL            string      `json:"URL"`
	Subject        []string    `json:"subject"`
}

// author is one contributor entry.
type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// fullName joins the given and family parts, either of which may be absent.
func (a author) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
}

// partialDate is CrossRef's date-parts representation; the first element of
// the first part is the year.
type partialDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year extracts the year component when present.
func (d partialDate) year() (int, bool) {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == 0 {
		return 0, false
	}
	return d.DateParts[0][0], true
}
