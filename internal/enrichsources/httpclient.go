package enrichsources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/observability"
)

// HTTPClientConfig configures the HTTP client shared by one source.
type HTTPClientConfig struct {
	// SourceName tags errors and metrics with the owning source.
	SourceName string

	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "X-ELS-APIKey", "x-api-key").
	APIKeyHeader string
}

// HTTPClient wraps http.Client with rate limiting and response
// classification. It is safe for concurrent use.
//
// The client deliberately does not retry: failed lookups are classified into
// the error taxonomy (not found, rate limited, transport) and the enrichment
// orchestrator decides whether and when to try again.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
	metrics     *observability.Metrics
}

// NewHTTPClient creates a new rate-limited HTTP client for one source.
func NewHTTPClient(cfg HTTPClientConfig, metrics *observability.Metrics) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "bibmerge/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
		metrics:     metrics,
	}
}

// GetJSON performs a rate-limited GET against url and decodes the JSON body
// into out. Extra headers override the defaults. Non-2xx responses are
// classified:
//
//	404              -> domain.NotFoundError
//	429              -> domain.RateLimitError with the advertised Retry-After
//	other non-2xx    -> domain.TransportError with the status code
//	network failures -> domain.TransportError with the cause
func (c *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.RecordSourceRequest(c.config.SourceName, time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.countFailure("network")
		return &domain.TransportError{Source: c.config.SourceName, Cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.countFailure("not_found")
		return &domain.NotFoundError{Source: c.config.SourceName}
	case resp.StatusCode == http.StatusTooManyRequests:
		if c.metrics != nil {
			c.metrics.RecordSourceRateLimited(c.config.SourceName)
		}
		return &domain.RateLimitError{
			Source:     c.config.SourceName,
			RetryAfter: parseRetryAfter(resp),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.countFailure("status")
		return &domain.TransportError{Source: c.config.SourceName, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.countFailure("decode")
		return &domain.TransportError{
			Source: c.config.SourceName,
			Cause:  fmt.Errorf("decoding response: %w", err),
		}
	}
	return nil
}

func (c *HTTPClient) countFailure(errorType string) {
	if c.metrics != nil {
		c.metrics.RecordSourceRequestFailed(c.config.SourceName, errorType)
	}
}

// parseRetryAfter extracts the advertised retry delay, either as seconds or
// as an HTTP date. Returns 0 when the header is absent or unparseable.
func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}
