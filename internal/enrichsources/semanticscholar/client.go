// Package semanticscholar implements the Semantic Scholar paper API client.
// Semantic Scholar is free; an API key is optional but grants higher rate
// limits.
package semanticscholar

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
	// DefaultBaseURL is the default Semantic Scholar API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// Unauthenticated clients share a small global pool.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL is the Semantic Scholar API base URL.
	// Defaults to https://api.semanticscholar.org
	BaseURL string

	// APIKey is an optional API key for higher rate limits.
	APIKey string

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

// Client implements the enrichsources.MetadataSource interface for Semantic
// Scholar.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new Semantic Scholar client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName:   "semanticscholar",
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "x-api-key",
	}, metrics)

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Semantic Scholar client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the Semantic Scholar metadata for a DOI.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	lookupURL := c.config.BaseURL + "/v1/paper/" + url.PathEscape(doi)

	var p paper
	if err := c.httpClient.GetJSON(ctx, lookupURL, nil, &p); err != nil {
		return nil, err
	}
	return paperToFields(&p), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "semanticscholar"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// paperToFields maps a Semantic Scholar paper to canonical field values.
func paperToFields(p *paper) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)

	if p.ExternalIDs.DOI != "" {
		values[domain.FieldDOI] = p.ExternalIDs.DOI
	}
	if p.Title != "" {
		values[domain.FieldTitle] = p.Title
	}
	if len(p.Authors) > 0 {
		names := make([]string, 0, len(p.Authors))
		for _, author := range p.Authors {
			if author.Name != "" {
				names = append(names, author.Name)
			}
		}
		if len(names) > 0 {
			values[domain.FieldAuthors] = domain.JoinList(names)
		}
	}
	if p.Abstract != "" {
		values[domain.FieldAbstract] = p.Abstract
	}
	if p.Year != 0 {
		values[domain.FieldYear] = strconv.Itoa(p.Year)
	}
	if p.CitationCount > 0 {
		values[domain.FieldCitationCount] = strconv.Itoa(p.CitationCount)
	}
	if p.URL != "" {
		values[domain.FieldURLs] = p.URL
	}
	if len(p.FieldsOfStudy) > 0 {
		joined := domain.JoinList(p.FieldsOfStudy)
		values[domain.FieldSubjectCategories] = joined
		values[domain.FieldWosCategories] = joined
		values[domain.FieldKeywordsAuthor] = joined
	}

	return values
}
