// Package europepmc implements the Europe PMC REST API client.
// Europe PMC is free and requires no key. Lookups go through the search
// endpoint with a DOI query, since there is no direct DOI path.
package europepmc

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
	// DefaultBaseURL is the default Europe PMC API base URL.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Europe PMC client.
type Config struct {
	// BaseURL is the Europe PMC API base URL.
	// Defaults to https://www.ebi.ac.uk/europepmc/webservices/rest
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

// Client implements the enrichsources.MetadataSource interface for Europe PMC.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new Europe PMC client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "europepmc",
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
	}, metrics)

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Europe PMC client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the Europe PMC metadata for a DOI. An empty search result
// reads as not found.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	query := url.Values{}
	query.Set("query", "DOI:"+doi)
	query.Set("format", "json")
	lookupURL := c.config.BaseURL + "/search?" + query.Encode()

	var resp searchResponse
	if err := c.httpClient.GetJSON(ctx, lookupURL, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.ResultList.Result) == 0 {
		return nil, &domain.NotFoundError{Source: c.Name(), DOI: doi}
	}
	return resultToFields(&resp.ResultList.Result[0]), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "europepmc"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// resultToFields maps a Europe PMC search result to canonical field values.
func resultToFields(r *result) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)

	if r.DOI != "" {
		values[domain.FieldDOI] = r.DOI
	}
	if r.PubType != "" {
		values[domain.FieldDocumentType] = r.PubType
	}
	if r.Title != "" {
		values[domain.FieldTitle] = r.Title
	}
	// authorString is already a comma-separated list of names.
	if r.AuthorString != "" {
		values[domain.FieldAuthors] = r.AuthorString
	}
	if r.JournalTitle != "" {
		values[domain.FieldVenue] = r.JournalTitle
	}
	if r.JournalVolume != "" {
		values[domain.FieldVolume] = r.JournalVolume
	}
	if r.JournalIssue != "" {
		values[domain.FieldIssue] = r.JournalIssue
	}
	if r.PubYear != "" {
		values[domain.FieldYear] = r.PubYear
	}
	if r.AbstractText != "" {
		values[domain.FieldAbstract] = r.AbstractText
	}

	var urls []string
	if r.SourceURL != "" {
		urls = append(urls, r.SourceURL)
	}
	for _, fullText := range r.FullTextURLList.FullTextURL {
		if fullText.URL != "" {
			urls = append(urls, fullText.URL)
		}
	}
	if len(urls) > 0 {
		values[domain.FieldURLs] = domain.JoinList(urls)
	}

	if r.CitedByCount > 0 {
		values[domain.FieldCitationCount] = strconv.Itoa(r.CitedByCount)
	}
	if r.IsOpenAccess != "" {
		status := "closed"
		if r.IsOpenAccess == "Y" {
			status = "open"
		}
		values[domain.FieldOpenAccessStatus] = status
	}

	return values
}
