// Package unpaywall implements the Unpaywall API client.
// Unpaywall is free but requires a contact email; the client is disabled
// without one.
package unpaywall

import (
	"context"
	"net/url"
	"time"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
	"github.com/bibmerge/bibmerge/internal/observability"
)

const (
	// DefaultBaseURL is the default Unpaywall API base URL.
	DefaultBaseURL = "https://api.unpaywall.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Unpaywall client.
type Config struct {
	// BaseURL is the Unpaywall API base URL.
	// Defaults to https://api.unpaywall.org
	BaseURL string

	// Email is the contact email Unpaywall requires on every request.
	Email string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled for lookups.
	// A source without a contact email is always disabled.
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

// Client implements the enrichsources.MetadataSource interface for Unpaywall.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new Unpaywall client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "unpaywall",
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
	}, metrics)

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Unpaywall client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the Unpaywall metadata for a DOI.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	lookupURL := c.config.BaseURL + "/v2/" + url.PathEscape(doi) +
		"?email=" + url.QueryEscape(c.config.Email)

	var w work
	if err := c.httpClient.GetJSON(ctx, lookupURL, nil, &w); err != nil {
		return nil, err
	}
	return workToFields(&w), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "unpaywall"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.Email != ""
}

// workToFields maps an Unpaywall work to canonical field values. Unpaywall
// is a thin source: it mainly contributes open-access status and fills basic
// bibliographic gaps.
func workToFields(w *work) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)

	if len(w.Authors) > 0 {
		names := make([]string, 0, len(w.Authors))
		for _, author := range w.Authors {
			if name := author.fullName(); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			values[domain.FieldAuthors] = domain.JoinList(names)
		}
	}
	if w.Title != "" {
		values[domain.FieldTitle] = w.Title
	}
	if w.JournalName != "" {
		values[domain.FieldVenue] = w.JournalName
	}
	// published_date is a full date; the year is its leading component.
	if len(w.PublishedDate) >= 4 {
		values[domain.FieldYear] = w.PublishedDate[:4]
	}
	if w.Genre != "" {
		values[domain.FieldDocumentType] = w.Genre
	}
	if w.OAStatus != "" {
		values[domain.FieldOpenAccessStatus] = w.OAStatus
	}

	return values
}
