package datacite

import (
	"encoding/json"
	"strings"
)

// doiResponse is the JSON:API envelope of the DataCite DOI endpoint.
type doiResponse struct {
	Data struct {
		Attributes attributes `json:"attributes"`
	} `json:"data"`
}

// attributes is one DataCite DOI record.
type attributes struct {
	Creators        []creator     `json:"creators"`
	Titles          []title       `json:"titles"`
	PublicationYear int           `json:"publicationYear"`
	Types           resourceTypes `json:"types"`
	Subjects        []subject     `json:"subjects"`
	Language        string        `json:"language"`
	Publisher       string        `json:"publisher"`
	Descriptions    []description `json:"descriptions"`
	Contributors    []contributor `json:"contributors"`
}

// creator is one author entry, with either split or combined name parts.
type creator struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	Name       string `json:"name"`
}

// fullName prefers the split name parts over the combined name.
func (c creator) fullName() string {
	if name := strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.FamilyName)); name != "" {
		return name
	}
	return strings.TrimSpace(c.Name)
}

type title struct {
	Title string `json:"title"`
}

type resourceTypes struct {
	ResourceTypeGeneral string `json:"resourceTypeGeneral"`
}

type subject struct {
	Subject string `json:"subject"`
}

type description struct {
	Description     string `json:"description"`
	DescriptionType string `json:"descriptionType"`
}

func (d description) isAbstract() bool {
	return strings.EqualFold(d.DescriptionType, "abstract")
}

type contributor struct {
	Affiliation affiliationList `json:"affiliation"`
}

type affiliationEntry struct {
	Name string `json:"name"`
}

// affiliationList accepts affiliation entries as objects, strings, or a
// single string, which all occur in the wild.
type affiliationList []affiliationEntry

// UnmarshalJSON implements json.Unmarshaler.
func (l *affiliationList) UnmarshalJSON(data []byte) error {
	var objects []affiliationEntry
	if err := json.Unmarshal(data, &objects); err == nil {
		*l = objects
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		entries := make([]affiliationEntry, 0, len(names))
		for _, name := range names {
			entries = append(entries, affiliationEntry{Name: name})
		}
		*l = entries
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = affiliationList{{Name: single}}
	return nil
}
