package europepmc

import (
	"context"
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
		Timeout:   5 * time.Second,
		RateLimit: 100, // High rate for testing
		BurstSize: 100,
		Enabled:   true,
	}

	httpClient := enrichsources.NewHTTPClient(enrichsources.HTTPClientConfig{
		SourceName: "europepmc",
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		UserAgent:  "TestClient/1.0",
	}, nil)

	return NewWithHTTPClient(cfg, httpClient)
}

const sampleResponse = `{
	"resultList": {
		"result": [{
			"doi": "10.1038/nature12373",
			"pubType": "research-article",
			"title": "CRISPR-Cas Systems for Editing Genomes",
			"authorString": "Smith J, Doe J.",
			"journalTitle": "Nature Biotechnology",
			"journalVolume": "32",
			"journalIssue": "4",
			"pubYear": "2014",
			"abstractText": "CRISPR is a powerful tool for genome editing.",
			"sourceUrl": "https://example.org/paper",
			"fullTextUrlList": {
				"fullTextUrl": [{"url": "https://example.org/paper.pdf"}]
			},
			"citedByCount": 5000,
			"isOpenAccess": "Y"
		}]
	}
}`

func TestLookup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "DOI:10.1038/nature12373", r.URL.Query().Get("query"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	values, err := client.Lookup(context.Background(), "10.1038/nature12373")
	require.NoError(t, err)

	assert.Equal(t, "10.1038/nature12373", values[domain.FieldDOI])
	assert.Equal(t, "research-article", values[domain.FieldDocumentType])
	assert.Equal(t, "CRISPR-Cas Systems for Editing Genomes", values[domain.FieldTitle])
	assert.Equal(t, "Smith J, Doe J.", values[domain.FieldAuthors])
	assert.Equal(t, "Nature Biotechnology", values[domain.FieldVenue])
	assert.Equal(t, "32", values[domain.FieldVolume])
	assert.Equal(t, "4", values[domain.FieldIssue])
	assert.Equal(t, "2014", values[domain.FieldYear])
	assert.Equal(t, "5000", values[domain.FieldCitationCount])
	assert.Equal(t, "open", values[domain.FieldOpenAccessStatus])
	assert.Equal(t, "https://example.org/paper; https://example.org/paper.pdf", values[domain.FieldURLs])
}

func TestLookupEmptyResultIsNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultList":{"result":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Lookup(context.Background(), "10.1000/missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "10.1000/missing", notFound.DOI)
}
