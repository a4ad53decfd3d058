// Package crossref implements the CrossRef works API client.
// CrossRef is free and requires no key; providing a contact email joins the
// polite pool with better rate limits.
package crossref

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
	// DefaultBaseURL is the default CrossRef API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the CrossRef client.
type Config struct {
	// BaseURL is the CrossRef API base URL.
	// Defaults to https://api.crossref.org
	BaseURL string

	// Email is the contact email for the polite pool.
	Email string

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

// Client implements the enrichsources.MetadataSource interface for CrossRef.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new CrossRef client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	userAgent := "bibmerge/1.0"
	if cfg.Email != "" {
		userAgent = "bibmerge/1.0 (mailto:" + cfg.Email + ")"
	}

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "crossref",
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		UserAgent:  userAgent,
	}, metrics)

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new CrossRef client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the CrossRef metadata for a DOI.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	lookupURL := c.config.BaseURL + "/works/" + url.PathEscape(doi)

	var resp worksResponse
	if err := c.httpClient.GetJSON(ctx, lookupURL, nil, &resp); err != nil {
		return nil, err
	}
	return workToFields(&resp.Message), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "crossref"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// workToFields maps a CrossRef work to canonical field values.
func workToFields(work *work) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)

	if work.DOI != "" {
		values[domain.FieldDOI] = work.DOI
	}
	if work.Type != "" {
		values[domain.FieldDocumentType] = work.Type
	}
	if len(work.Authors) > 0 {
		names := make([]string, 0, len(work.Authors))
		for _, author := range work.Authors {
			if name := author.fullName(); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			values[domain.FieldAuthors] = domain.JoinList(names)
		}
	}
	if len(work.Title) > 0 && work.Title[0] != "" {
		values[domain.FieldTitle] = work.Title[0]
	}
	if year, ok := work.Issued.year(); ok {
		values[domain.FieldYear] = strconv.Itoa(year)
	}
	if len(work.ContainerTitle) > 0 && work.ContainerTitle[0] != "" {
		values[domain.FieldVenue] = work.ContainerTitle[0]
	}
	if work.Volume != "" {
		values[domain.FieldVolume] = work.Volume
	}
	if work.Issue != "" {
		values[domain.FieldIssue] = work.Issue
	}
	if work.Abstract != "" {
		values[domain.FieldAbstract] = work.Abstract
	}
	if work.URL != "" {
		values[domain.FieldURLs] = work.URL
	}
	if len(work.Subject) > 0 {
		// CrossRef has one subject taxonomy; it feeds all three category-like
		// fields, matching how source exports overload them.
		joined := domain.JoinList(work.Subject)
		values[domain.FieldSubjectCategories] = joined
		values[domain.FieldWosCategories] = joined
		values[domain.FieldKeywordsAuthor] = joined
	}

	return values
}
