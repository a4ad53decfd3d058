package unpaywall

import "strings"

// work is one Unpaywall work record.
type work struct {
	Title         string   `json:"title"`
	JournalName   string   `json:"journal_name"`
	PublishedDate string   `json:"published_date"`
	Genre         string   `json:"genre"`
	OAStatus      string   `json:"oa_status"`
	Authors       []author `json:"z_authors"`
}

// author is one contributor entry in CrossRef style.
type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// fullName joins the given and family parts, either of which may be absent.
func (a author) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
}
