// Package config provides configuration management for the record merge
// pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the record merge pipeline.
type Config struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Resolver contains identity resolution thresholds.
	Resolver ResolverConfig `mapstructure:"resolver"`
	// Merger contains field reconciliation settings.
	Merger MergerConfig `mapstructure:"merger"`
	// Enrichment contains enrichment orchestrator settings.
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	// Sources contains metadata source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
	// Predict contains predictive enrichment settings.
	Predict PredictConfig `mapstructure:"predict"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format" validate:"oneof=json console pretty"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`
	// Namespace is the Prometheus metric namespace.
	Namespace string `mapstructure:"namespace"`
}

// ResolverConfig holds identity resolution thresholds.
type ResolverConfig struct {
	// ProbableThreshold is the minimum combined score for a probable match.
	ProbableThreshold float64 `mapstructure:"probable_threshold" validate:"gt=0,lte=1"`
	// NearIdenticalTitle is the title similarity above which a year mismatch
	// is forgiven.
	NearIdenticalTitle float64 `mapstructure:"near_identical_title" validate:"gt=0,lte=1"`
	// YearTolerance is the maximum publication year difference allowed for a
	// probable match.
	YearTolerance int `mapstructure:"year_tolerance" validate:"gte=0"`
	// TitleWeight is the title similarity weight in the combined score.
	TitleWeight float64 `mapstructure:"title_weight" validate:"gte=0,lte=1"`
	// AuthorWeight is the author overlap weight in the combined score.
	AuthorWeight float64 `mapstructure:"author_weight" validate:"gte=0,lte=1"`
}

// MergerConfig holds field reconciliation settings.
type MergerConfig struct {
	// SourcePriority orders origin databases from most to least trusted.
	SourcePriority []string `mapstructure:"source_priority" validate:"min=1"`
	// NearDuplicateText is the similarity above which free-text variants are
	// considered the same text, so priority rather than length picks the
	// winner.
	NearDuplicateText float64 `mapstructure:"near_duplicate_text" validate:"gt=0,lte=1"`
}

// EnrichmentConfig holds enrichment orchestrator settings.
type EnrichmentConfig struct {
	// Concurrency is the number of records enriched in parallel.
	Concurrency int `mapstructure:"concurrency" validate:"gt=0"`
	// MaxRetries is the maximum number of retries after a rate limit.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`
	// BackoffBase is the initial retry backoff.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	// BackoffCap is the maximum retry backoff.
	BackoffCap time.Duration `mapstructure:"backoff_cap"`
	// FallbackOrder lists source names in lookup order. Empty means all
	// enabled sources in registration order.
	FallbackOrder []string `mapstructure:"fallback_order"`
}

// SourcesConfig holds configuration for all metadata source APIs.
type SourcesConfig struct {
	// CrossRef contains CrossRef API settings.
	CrossRef SourceConfig `mapstructure:"crossref"`
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// Scopus contains Elsevier Scopus API settings.
	Scopus SourceConfig `mapstructure:"scopus"`
	// DataCite contains DataCite API settings.
	DataCite SourceConfig `mapstructure:"datacite"`
	// Unpaywall contains Unpaywall API settings.
	Unpaywall SourceConfig `mapstructure:"unpaywall"`
	// EuropePMC contains Europe PMC API settings.
	EuropePMC SourceConfig `mapstructure:"europepmc"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
}

// SourceConfig holds configuration for a single metadata source API.
type SourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the API base URL. Empty uses the source's default.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// Email is the contact email for sources with a polite pool or a
	// mandatory email parameter.
	Email string `mapstructure:"email" validate:"omitempty,email"`
	// APIKey is the API key (loaded from environment variables only, e.g.
	// BIBMERGE_SOURCES_SCOPUS_API_KEY).
	APIKey string `mapstructure:"-"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	// BurstSize is the burst size for rate limiting.
	BurstSize int `mapstructure:"burst_size" validate:"gte=0"`
}

// PredictConfig holds predictive enrichment settings.
type PredictConfig struct {
	// MinTrainingRows is the minimum labelled records per field model.
	MinTrainingRows int `mapstructure:"min_training_rows" validate:"gt=0"`
	// MinCoverage is the minimum labelled fraction of the batch per field
	// model.
	MinCoverage float64 `mapstructure:"min_coverage" validate:"gte=0,lte=1"`
	// Threshold is the label acceptance score cutoff.
	Threshold float64 `mapstructure:"threshold" validate:"gt=0,lte=1"`
	// Neighbours is the kNN neighbourhood size.
	Neighbours int `mapstructure:"neighbours" validate:"gt=0"`
	// MaxFeatures caps the TF-IDF vocabulary size.
	MaxFeatures int `mapstructure:"max_features" validate:"gt=0"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("BIBMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bibmerge")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Sources.Scopus.APIKey = os.Getenv("BIBMERGE_SOURCES_SCOPUS_API_KEY")
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("BIBMERGE_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "bibmerge")

	// Resolver defaults
	v.SetDefault("resolver.probable_threshold", 0.80)
	v.SetDefault("resolver.near_identical_title", 0.95)
	v.SetDefault("resolver.year_tolerance", 0)
	v.SetDefault("resolver.title_weight", 0.7)
	v.SetDefault("resolver.author_weight", 0.3)

	// Merger defaults
	v.SetDefault("merger.source_priority", []string{"scopus", "wos"})
	v.SetDefault("merger.near_duplicate_text", 0.95)

	// Enrichment defaults
	v.SetDefault("enrichment.concurrency", 4)
	v.SetDefault("enrichment.max_retries", 3)
	v.SetDefault("enrichment.backoff_base", "1s")
	v.SetDefault("enrichment.backoff_cap", "30s")
	v.SetDefault("enrichment.fallback_order", []string{
		"crossref", "openalex", "datacite", "europepmc",
		"scopus", "semanticscholar", "unpaywall",
	})

	// Source defaults. Base URLs default inside each client; API keys are
	// env-only. Email keys default to empty so viper binds their env vars.
	v.SetDefault("sources.crossref.enabled", true)
	v.SetDefault("sources.crossref.email", "")
	v.SetDefault("sources.crossref.timeout", "30s")
	v.SetDefault("sources.crossref.rate_limit", 2.0)
	v.SetDefault("sources.crossref.burst_size", 2)

	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.email", "")
	v.SetDefault("sources.openalex.timeout", "30s")
	v.SetDefault("sources.openalex.rate_limit", 10.0)
	v.SetDefault("sources.openalex.burst_size", 10)

	// Scopus requires an API key; disabled without one regardless.
	v.SetDefault("sources.scopus.enabled", true)
	v.SetDefault("sources.scopus.timeout", "30s")
	v.SetDefault("sources.scopus.rate_limit", 5.0)
	v.SetDefault("sources.scopus.burst_size", 5)

	v.SetDefault("sources.datacite.enabled", true)
	v.SetDefault("sources.datacite.timeout", "30s")
	v.SetDefault("sources.datacite.rate_limit", 5.0)
	v.SetDefault("sources.datacite.burst_size", 5)

	// Unpaywall requires a contact email; disabled without one regardless.
	v.SetDefault("sources.unpaywall.enabled", true)
	v.SetDefault("sources.unpaywall.email", "")
	v.SetDefault("sources.unpaywall.timeout", "30s")
	v.SetDefault("sources.unpaywall.rate_limit", 5.0)
	v.SetDefault("sources.unpaywall.burst_size", 5)

	v.SetDefault("sources.europepmc.enabled", true)
	v.SetDefault("sources.europepmc.timeout", "30s")
	v.SetDefault("sources.europepmc.rate_limit", 5.0)
	v.SetDefault("sources.europepmc.burst_size", 5)

	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0)
	v.SetDefault("sources.semantic_scholar.burst_size", 1)

	// Predict defaults
	v.SetDefault("predict.min_training_rows", 20)
	v.SetDefault("predict.min_coverage", 0.05)
	v.SetDefault("predict.threshold", 0.3)
	v.SetDefault("predict.neighbours", 10)
	v.SetDefault("predict.max_features", 2000)
}

// knownSources names every metadata source the pipeline can construct.
var knownSources = map[string]bool{
	"crossref":        true,
	"openalex":        true,
	"scopus":          true,
	"datacite":        true,
	"unpaywall":       true,
	"europepmc":       true,
	"semanticscholar": true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if sum := c.Resolver.TitleWeight + c.Resolver.AuthorWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("resolver title_weight and author_weight must sum to 1, got %.3f", sum)
	}
	if c.Resolver.NearIdenticalTitle < c.Resolver.ProbableThreshold {
		return fmt.Errorf("resolver near_identical_title (%.2f) must be >= probable_threshold (%.2f)",
			c.Resolver.NearIdenticalTitle, c.Resolver.ProbableThreshold)
	}

	for _, name := range c.Enrichment.FallbackOrder {
		if !knownSources[name] {
			return fmt.Errorf("unknown source in enrichment fallback_order: %s", name)
		}
	}

	if c.Enrichment.BackoffBase <= 0 {
		return fmt.Errorf("enrichment backoff_base must be positive")
	}
	if c.Enrichment.BackoffCap < c.Enrichment.BackoffBase {
		return fmt.Errorf("enrichment backoff_cap (%s) must be >= backoff_base (%s)",
			c.Enrichment.BackoffCap, c.Enrichment.BackoffBase)
	}

	return nil
}
