package scopus

import (
	"encoding/json"
	"strings"
)

// retrievalResponse is the envelope of the abstract retrieval endpoint.
type retrievalResponse struct {
	Response abstractsResponse `json:"abstracts-retrieval-response"`
}

// abstractsResponse is one Scopus abstract record.
type abstractsResponse struct {
	CoreData     coreData     `json:"coredata"`
	Authors      authorsBlock `json:"authors"`
	SubjectAreas subjectAreas `json:"subject-areas"`
}

// coreData carries the record's bibliographic core in Elsevier's
// prism/dc vocabulary.
type coreData struct {
	DOI             string `json:"prism:doi"`
	Identifier      string `json:"dc:identifier"`
	AggregationType string `json:"prism:aggregationType"`
	Title           string `json:"dc:title"`
	PublicationName string `json:"prism:publicationName"`
	Volume          string `json:"prism:volume"`
	Issue           string `json:"prism:issueIdentifier"`
	CoverDate       string `json:"prism:coverDate"`
	Description     string `json:"dc:description"`
	Links           []link `json:"link"`
	CitedByCount    string `json:"citedby-count"`
}

type link struct {
	Href string `json:"@href"`
}

type authorsBlock struct {
	Author []author `json:"author"`
}

// author is one contributor entry. Scopus serializes a single affiliation as
// an object and multiple affiliations as an array, so the field needs a
// tolerant decoder.
type author struct {
	GivenName    string          `json:"ce:given-name"`
	Surname      string          `json:"ce:surname"`
	Affiliations affiliationList `json:"affiliation"`
}

// fullName joins the given name and surname, either of which may be absent.
func (a author) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.GivenName) + " " + strings.TrimSpace(a.Surname))
}

type affiliation struct {
	Name string `json:"affilname"`
}

// affiliationList accepts either a single affiliation object or an array.
type affiliationList []affiliation

// UnmarshalJSON implements json.Unmarshaler.
func (l *affiliationList) UnmarshalJSON(data []byte) error {
	var many []affiliation
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one affiliation
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = affiliationList{one}
	return nil
}

type subjectAreas struct {
	SubjectArea []subjectArea `json:"subject-area"`
}

type subjectArea struct {
	Value string `json:"$"`
}
