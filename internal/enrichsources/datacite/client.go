// Package datacite implements the DataCite DOI API client.
// DataCite is free and requires no key. It mostly covers datasets, reports
// and other non-journal works.
package datacite

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
	"github.com/bibmerge/bibmerge/internal/observability"
)

const (
	// DefaultBaseURL is the default DataCite API base URL.
	DefaultBaseURL = "https://api.datacite.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// categorySubjectLimit is the maximum number of subjects that still read
	// as a category list. Longer subject lists are keyword tagging, not a
	// taxonomy, and only feed the keyword field.
	categorySubjectLimit = 2
)

// Config holds configuration for the DataCite client.
type Config struct {
	// BaseURL is the DataCite API base URL.
	// Defaults to https://api.datacite.org
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled for lookups.
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

// Client implements the enrichsources.MetadataSource interface for DataCite.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new DataCite client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "datacite",
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
	}, metrics)

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new DataCite client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the DataCite metadata for a DOI.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	lookupURL := c.config.BaseURL + "/dois/" + url.PathEscape(doi)
	headers := map[string]string{"Accept": "application/vnd.api+json"}

	var resp doiResponse
	if err := c.httpClient.GetJSON(ctx, lookupURL, headers, &resp); err != nil {
		return nil, err
	}
	return attributesToFields(&resp.Data.Attributes), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "datacite"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// attributesToFields maps DataCite DOI attributes to canonical field values.
func attributesToFields(attrs *attributes) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)

	if len(attrs.Creators) > 0 {
		names := make([]string, 0, len(attrs.Creators))
		for _, creator := range attrs.Creators {
			if name := creator.fullName(); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			values[domain.FieldAuthors] = domain.JoinList(names)
		}
	}
	if len(attrs.Titles) > 0 && attrs.Titles[0].Title != "" {
		values[domain.FieldTitle] = attrs.Titles[0].Title
	}
	if attrs.PublicationYear != 0 {
		values[domain.FieldYear] = strconv.Itoa(attrs.PublicationYear)
	}
	if attrs.Types.ResourceTypeGeneral != "" {
		values[domain.FieldDocumentType] = attrs.Types.ResourceTypeGeneral
	}

	if len(attrs.Subjects) > 0 {
		subjects := make([]string, 0, len(attrs.Subjects))
		for _, subject := range attrs.Subjects {
			if subject.Subject != "" {
				subjects = append(subjects, subject.Subject)
			}
		}
		if len(subjects) > 0 {
			joined := domain.JoinList(subjects)
			values[domain.FieldKeywordsAuthor] = joined
			if len(subjects) <= categorySubjectLimit {
				values[domain.FieldSubjectCategories] = joined
				values[domain.FieldWosCategories] = joined
			}
		}
	}

	if attrs.Language != "" {
		values[domain.FieldLanguage] = attrs.Language
	}
	if attrs.Publisher != "" {
		values[domain.FieldVenue] = attrs.Publisher
	}

	for _, desc := range attrs.Descriptions {
		if desc.isAbstract() && desc.Description != "" {
			values[domain.FieldAbstract] = desc.Description
			break
		}
	}

	if affiliations := collectAffiliations(attrs.Contributors); len(affiliations) > 0 {
		values[domain.FieldAffiliations] = domain.JoinList(affiliations)
	}

	return values
}

// collectAffiliations flattens contributor affiliations, deduplicated.
func collectAffiliations(contributors []contributor) []string {
	var affiliations []string
	seen := make(map[string]bool)
	for _, contrib := range contributors {
		for _, aff := range contrib.Affiliation {
			if aff.Name != "" && !seen[aff.Name] {
				seen[aff.Name] = true
				affiliations = append(affiliations, aff.Name)
			}
		}
	}
	return affiliations
}
