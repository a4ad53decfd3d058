package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "bibmerge", cfg.Metrics.Namespace)

	assert.InDelta(t, 0.80, cfg.Resolver.ProbableThreshold, 1e-9)
	assert.InDelta(t, 0.95, cfg.Resolver.NearIdenticalTitle, 1e-9)
	assert.Equal(t, 0, cfg.Resolver.YearTolerance)

	assert.Equal(t, []string{"scopus", "wos"}, cfg.Merger.SourcePriority)

	assert.Equal(t, 4, cfg.Enrichment.Concurrency)
	assert.Equal(t, 3, cfg.Enrichment.MaxRetries)
	assert.Equal(t, time.Second, cfg.Enrichment.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.Enrichment.BackoffCap)
	assert.Equal(t, "crossref", cfg.Enrichment.FallbackOrder[0])

	assert.True(t, cfg.Sources.CrossRef.Enabled)
	assert.InDelta(t, 2.0, cfg.Sources.CrossRef.RateLimit, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Sources.OpenAlex.Timeout)

	assert.Equal(t, 20, cfg.Predict.MinTrainingRows)
	assert.Equal(t, 10, cfg.Predict.Neighbours)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BIBMERGE_RESOLVER_YEAR_TOLERANCE", "1")
	t.Setenv("BIBMERGE_ENRICHMENT_CONCURRENCY", "8")
	t.Setenv("BIBMERGE_SOURCES_CROSSREF_EMAIL", "team@example.org")
	t.Setenv("BIBMERGE_SOURCES_SCOPUS_API_KEY", "secret-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Resolver.YearTolerance)
	assert.Equal(t, 8, cfg.Enrichment.Concurrency)
	assert.Equal(t, "team@example.org", cfg.Sources.CrossRef.Email)
	assert.Equal(t, "secret-key", cfg.Sources.Scopus.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
		},
		{
			name:   "log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
		},
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Resolver.ProbableThreshold = 1.5 },
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *Config) {
				c.Resolver.TitleWeight = 0.7
				c.Resolver.AuthorWeight = 0.7
			},
		},
		{
			name:   "empty source priority",
			mutate: func(c *Config) { c.Merger.SourcePriority = nil },
		},
		{
			name:   "unknown fallback source",
			mutate: func(c *Config) { c.Enrichment.FallbackOrder = []string{"pubmed"} },
		},
		{
			name: "backoff cap below base",
			mutate: func(c *Config) {
				c.Enrichment.BackoffBase = time.Minute
				c.Enrichment.BackoffCap = time.Second
			},
		},
		{
			name:   "bad email",
			mutate: func(c *Config) { c.Sources.Unpaywall.Email = "not-an-email" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
