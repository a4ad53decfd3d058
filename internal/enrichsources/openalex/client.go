// Package openalex implements the OpenAlex works API client.
// OpenAlex is free and requires no key; providing a contact email joins the
// polite pool with better rate limits.
package openalex

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
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// OpenAlex polite pool (with email) allows higher rates.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
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

// Client implements the enrichsources.MetadataSource interface for OpenAlex.
type Client struct {
	config     Config
	httpClient *enrichsources.HTTPClient
}

// Ensure Client implements MetadataSource interface.
var _ enrichsources.MetadataSource = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	userAgent := "bibmerge/1.0"
	if cfg.Email != "" {
		userAgent = "bibmerge/1.0 (mailto:" + cfg.Email + ")"
	}

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "openalex",
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

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *enrichsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Lookup retrieves the OpenAlex metadata for a DOI.
func (c *Client) Lookup(ctx context.Context, doi string) (enrichsources.FieldValues, error) {
	lookupURL := c.config.BaseURL + "/works/doi:" + url.PathEscape(doi)
	if c.config.Email != "" {
		lookupURL += "?mailto=" + url.QueryEscape(c.config.Email)
	}

	var w work
	if err := c.httpClient.GetJSON(ctx, lookupURL, nil, &w); err != nil {
		return nil, err
	}
	return workToFields(&w), nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return "openalex"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// workToFields maps an OpenAlex work to canonical field values.
func workToFields(w *work) enrichsources.FieldValues {
	values := make(enrichsources.FieldValues)

	if w.DOI != "" {
		values[domain.FieldDOI] = w.DOI
	}
	if w.Type != "" {
		values[domain.FieldDocumentType] = w.Type
	}

	title := w.Title
	if title == "" {
		title = w.DisplayName
	}
	if title != "" {
		values[domain.FieldTitle] = title
	}

	if len(w.Authorships) > 0 {
		names := make([]string, 0, len(w.Authorships))
		var institutions []string
		seen := make(map[string]bool)
		for _, authorship := range w.Authorships {
			if authorship.Author.DisplayName != "" {
				names = append(names, authorship.Author.DisplayName)
			}
			for _, inst := range authorship.Institutions {
				if inst.DisplayName != "" && !seen[inst.DisplayName] {
					seen[inst.DisplayName] = true
					institutions = append(institutions, inst.DisplayName)
				}
			}
		}
		if len(names) > 0 {
			values[domain.FieldAuthors] = domain.JoinList(names)
		}
		if len(institutions) > 0 {
			values[domain.FieldAffiliations] = domain.JoinList(institutions)
		}
	}

	if w.PublicationYear != 0 {
		values[domain.FieldYear] = strconv.Itoa(w.PublicationYear)
	}
	if w.HostVenue.DisplayName != "" {
		values[domain.FieldVenue] = w.HostVenue.DisplayName
	}
	if w.HostVenue.URL != "" {
		values[domain.FieldURLs] = w.HostVenue.URL
	}

	if abstract := reconstructAbstract(w.AbstractInvertedIndex); abstract != "" {
		values[domain.FieldAbstract] = abstract
	}

	if len(w.Concepts) > 0 {
		concepts := make([]string, 0, len(w.Concepts))
		for _, concept := range w.Concepts {
			if concept.DisplayName != "" {
				concepts = append(concepts, concept.DisplayName)
			}
		}
		if len(concepts) > 0 {
			// OpenAlex concepts feed all three category-like fields, matching
			// how source exports overload them.
			joined := domain.JoinList(concepts)
			values[domain.FieldSubjectCategories] = joined
			values[domain.FieldWosCategories] = joined
			values[domain.FieldKeywordsAuthor] = joined
		}
	}

	if w.CitedByCount > 0 {
		values[domain.FieldCitationCount] = strconv.Itoa(w.CitedByCount)
	}
	if w.OpenAccess.Status != "" {
		values[domain.FieldOpenAccessStatus] = w.OpenAccess.Status
	}

	return values
}
