// Package scopus implements the Elsevier Scopus abstract retrieval API
// client. Scopus requires an API key; the client is disabled without one.
package scopus

import (
	"context"
	"net/url"
	"time"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
	"github.com/bibmerge/bibmerge/internal/observability"
)

const (
	// DefaultBaseURL is the default Scopus API base URL.
	DefaultBaseURL = "https://api.elsevier.com"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Scopus client.
type Config struct {
	// BaseURL is the Scopus API base URL.
	// Defaults to https://api.elsevier.com
	BaseURL string

	// APIKey is the Elsevier API key (required).
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled for lookups.
	// A source without an API key is always disabled.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements the enrichsources.MetadataSource interface for Scopus.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new Scopus client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName:   "scopus",
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "X-ELS-APIKey",
	}, metrics)

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Scopus client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the Scopus metadata for a DOI.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	lookupURL := c.config.BaseURL + "/content/abstract/doi/" + url.PathEscape(doi)

	var resp retrievalResponse
	if err := c.httpClient.GetJSON(ctx, lookupURL, nil, &resp); err != nil {
		return nil, err
	}
	return abstractToFields(&resp.Response), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "scopus"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// abstractToFields maps a Scopus abstract retrieval response to canonical
// field values.
func abstractToFields(r *abstractsResponse) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)
	core := r.CoreData

	if core.DOI != "" {
		values[domain.FieldDOI] = core.DOI
	} else if core.Identifier != "" {
		values[domain.FieldDOI] = core.Identifier
	}
	if core.AggregationType != "" {
		values[domain.FieldDocumentType] = core.AggregationType
	}
	if core.Title != "" {
		values[domain.FieldTitle] = core.Title
	}
	if core.PublicationName != "" {
		values[domain.FieldVenue] = core.PublicationName
	}
	if core.Volume != "" {
		values[domain.FieldVolume] = core.Volume
	}
	if core.Issue != "" {
		values[domain.FieldIssue] = core.Issue
	}
	// prism:coverDate is a full date; the year is its leading component.
	if len(core.CoverDate) >= 4 {
		values[domain.FieldYear] = core.CoverDate[:4]
	}
	if core.Description != "" {
		values[domain.FieldAbstract] = core.Description
	}
	if len(core.Links) > 0 {
		urls := make([]string, 0, len(core.Links))
		for _, link := range core.Links {
			if link.Href != "" {
				urls = append(urls, link.Href)
			}
		}
		if len(urls) > 0 {
			values[domain.FieldURLs] = domain.JoinList(urls)
		}
	}
	if core.CitedByCount != "" {
		values[domain.FieldCitationCount] = core.CitedByCount
	}

	if names, affiliations := collectAuthors(r.Authors.Author); len(names) > 0 {
		values[domain.FieldAuthors] = domain.JoinList(names)
		if len(affiliations) > 0 {
			values[domain.FieldAffiliations] = domain.JoinList(affiliations)
		}
	}

	if len(r.SubjectAreas.SubjectArea) > 0 {
		subjects := make([]string, 0, len(r.SubjectAreas.SubjectArea))
		for _, area := range r.SubjectAreas.SubjectArea {
			if area.Value != "" {
				subjects = append(subjects, area.Value)
			}
		}
		if len(subjects) > 0 {
			joined := domain.JoinList(subjects)
			values[domain.FieldSubjectCategories] = joined
			values[domain.FieldWosCategories] = joined
			values[domain.FieldKeywordsAuthor] = joined
		}
	}

	return values
}

// collectAuthors flattens the author entries into full names and a
// deduplicated affiliation list.
func collectAuthors(authors []author) ([]string, []string) {
	names := make([]string, 0, len(authors))
	var affiliations []string
	seen := make(map[string]bool)

	for _, a := range authors {
		if name := a.fullName(); name != "" {
			names = append(names, name)
		}
		for _, aff := range a.Affiliations {
			if aff.Name != "" && !seen[aff.Name] {
				seen[aff.Name] = true
				affiliations = append(affiliations, aff.Name)
			}
		}
	}
	return names, affiliations
}
