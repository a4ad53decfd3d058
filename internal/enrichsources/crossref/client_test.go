package crossref

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
)

// newTestClient creates a client configured for testing with the given server URL.
func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL:   serverURL,
		Email:     "test@example.com",
		Timeout:   5 * time.Second,
		RateLimit: 100, // High rate for testing
		BurstSize: 100,
		Enabled:   true,
	}

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "crossref",
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		UserAgent:  "TestClient/1.0",
	}, nil)

	return NewWithHTTPClient(cfg, httpClient)
}

func sampleWork() map[string]any {
	return map[string]any{
		"message": map[string]any{
			"DOI":  "10.1038/nature12373",
			"type": "journal-article",
			"author": []map[string]any{
				{"given": "John", "family": "Smith"},
				{"given": "Jane", "family": "Doe"},
			},
			"title":           []string{"CRISPR-Cas Systems for Editing Genomes"},
			"issued":          map[string]any{"date-parts": [][]int{{2014, 6, 5}}},
			"container-title": []string{"Nature Biotechnology"},
			"volume":          "32",
			"issue":           "4",
			"abstract":        "CRISPR is a powerful tool for genome editing.",
			"URL":             "http://dx.doi.org/10.1038/nature12373",
			"subject":         []string{"Biotechnology", "Molecular Biology"},
		},
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/10.1038%2Fnature12373", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(sampleWork()))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	values, err := client.Lookup(context.Background(), "10.1038/nature12373")
	require.NoError(t, err)

	assert.Equal(t, "10.1038/nature12373", values[domain.FieldDOI])
	assert.Equal(t, "journal-article", values[domain.FieldDocumentType])
	assert.Equal(t, "CRISPR-Cas Systems for Editing Genomes", values[domain.FieldTitle])
	assert.Equal(t, "John Smith; Jane Doe", values[domain.FieldAuthors])
	assert.Equal(t, "2014", values[domain.FieldYear])
	assert.Equal(t, "Nature Biotechnology", values[domain.FieldVenue])
	assert.Equal(t, "32", values[domain.FieldVolume])
	assert.Equal(t, "4", values[domain.FieldIssue])
	assert.Equal(t, "CRISPR is a powerful tool for genome editing.", values[domain.FieldAbstract])
	assert.Equal(t, "http://dx.doi.org/10.1038/nature12373", values[domain.FieldURLs])

	// One subject taxonomy feeds all three category-like fields.
	assert.Equal(t, "Biotechnology; Molecular Biology", values[domain.FieldSubjectCategories])
	assert.Equal(t, "Biotechnology; Molecular Biology", values[domain.FieldWosCategories])
	assert.Equal(t, "Biotechnology; Molecular Biology", values[domain.FieldKeywordsAuthor])
}

func TestLookupSparseWork(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"DOI":"10.1000/sparse","title":["Sparse Work"]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	values, err := client.Lookup(context.Background(), "10.1000/sparse")
	require.NoError(t, err)

	assert.Equal(t, "Sparse Work", values[domain.FieldTitle])
	assert.NotContains(t, values, domain.FieldYear)
	assert.NotContains(t, values, domain.FieldAuthors)
	assert.NotContains(t, values, domain.FieldSubjectCategories)
}

func TestLookupNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Lookup(context.Background(), "10.1000/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLookupRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Lookup(context.Background(), "10.1000/limited")
	require.ErrorIs(t, err, domain.ErrRateLimited)

	var rateErr *domain.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 7*time.Second, rateErr.RetryAfter)
}

func TestLookupServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Lookup(context.Background(), "10.1000/broken")
	assert.ErrorIs(t, err, domain.ErrTransport)
}
