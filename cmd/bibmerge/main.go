// Package main provides the bibmerge command line interface: it reads a
// JSON-lines record export, deduplicates and enriches it, and writes the
// merged collection and the run report.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bibmerge/bibmerge/internal/config"
	"github.com/bibmerge/bibmerge/internal/dedup"
	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrich"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
	"github.com/bibmerge/bibmerge/internal/enrichsources/crossref"
	"github.com/bibmerge/bibmerge/internal/enrichsources/datacite"
	"github.com/bibmerge/bibmerge/internal/enrichsources/europepmc"
	"github.com/bibmerge/bibmerge/internal/enrichsources/openalex"
	"github.com/bibmerge/bibmerge/internal/enrichsources/scopus"
	"github.com/bibmerge/bibmerge/internal/enrichsources/semanticscholar"
	"github.com/bibmerge/bibmerge/internal/enrichsources/unpaywall"
	"github.com/bibmerge/bibmerge/internal/export"
	"github.com/bibmerge/bibmerge/internal/ingest"
	"github.com/bibmerge/bibmerge/internal/observability"
	"github.com/bibmerge/bibmerge/internal/pipeline"
	"github.com/bibmerge/bibmerge/internal/predict"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "bibmerge",
		Short:         "Merge and enrich bibliographic record exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runOptions holds the run command's file paths. "-" means stdin or stdout.
type runOptions struct {
	input      string
	tsvOutput  string
	jsonOutput string
	reportPath string
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Deduplicate, merge and enrich a JSON-lines record export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "JSON-lines input file, - for stdin")
	cmd.Flags().StringVarP(&opts.tsvOutput, "output", "o", "-", "tab-separated output file, - for stdout")
	cmd.Flags().StringVar(&opts.jsonOutput, "json", "", "also write the collection as JSON with provenance")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "also write the run report as JSON")
	return cmd
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	runID := uuid.New().String()
	ctx = observability.WithRunID(ctx, runID)
	logger = logger.With().Str("run_id", runID).Logger()
	logger.Info().Msg("bibmerge starting")

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	records, err := readInput(opts.input, logger, metrics)
	if err != nil {
		return err
	}

	priority := make([]domain.Source, 0, len(cfg.Merger.SourcePriority))
	for _, s := range cfg.Merger.SourcePriority {
		priority = append(priority, domain.Source(s))
	}
	merger := dedup.NewMerger(dedup.MergerConfig{
		SourcePriority:    priority,
		NearDuplicateText: cfg.Merger.NearDuplicateText,
	})
	resolver := dedup.NewResolver(dedup.ResolverConfig{
		ProbableThreshold:  cfg.Resolver.ProbableThreshold,
		NearIdenticalTitle: cfg.Resolver.NearIdenticalTitle,
		YearTolerance:      cfg.Resolver.YearTolerance,
		TitleWeight:        cfg.Resolver.TitleWeight,
		AuthorWeight:       cfg.Resolver.AuthorWeight,
	})
	orchestrator := enrich.NewOrchestrator(buildRegistry(cfg, metrics), enrich.Config{
		Concurrency:   cfg.Enrichment.Concurrency,
		FallbackOrder: cfg.Enrichment.FallbackOrder,
		MaxRetries:    cfg.Enrichment.MaxRetries,
		BackoffBase:   cfg.Enrichment.BackoffBase,
		BackoffCap:    cfg.Enrichment.BackoffCap,
	}, logger, metrics)
	engine := predict.NewEngine(predict.Config{
		MinTrainingRows: cfg.Predict.MinTrainingRows,
		MinCoverage:     cfg.Predict.MinCoverage,
		Threshold:       cfg.Predict.Threshold,
		Neighbours:      cfg.Predict.Neighbours,
		MaxFeatures:     cfg.Predict.MaxFeatures,
	}, logger, metrics)

	runner := pipeline.NewRunner(
		dedup.NewPipeline(resolver, merger, logger, metrics),
		merger, orchestrator, engine, logger,
	)

	merged, rep, err := runner.Run(ctx, records)
	if err != nil {
		return err
	}

	if err := writeOutput(opts.tsvOutput, func(w io.Writer) error {
		return export.WriteTSV(w, merged)
	}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if opts.jsonOutput != "" {
		if err := writeOutput(opts.jsonOutput, func(w io.Writer) error {
			return export.WriteJSON(w, merged)
		}); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if opts.reportPath != "" {
		if err := writeOutput(opts.reportPath, func(w io.Writer) error {
			return export.WriteReport(w, rep)
		}); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// buildRegistry constructs every metadata source client. Sources missing a
// mandatory key or email report themselves disabled and are skipped at lookup
// time.
func buildRegistry(cfg *config.Config, metrics *observability.Metrics) *enrichsources.Registry {
	registry := enrichsources.NewRegistry()
	registry.Register(crossref.New(crossref.Config{
		BaseURL:   cfg.Sources.CrossRef.BaseURL,
		Email:     cfg.Sources.CrossRef.Email,
		Timeout:   cfg.Sources.CrossRef.Timeout,
		RateLimit: cfg.Sources.CrossRef.RateLimit,
		BurstSize: cfg.Sources.CrossRef.BurstSize,
		Enabled:   cfg.Sources.CrossRef.Enabled,
	}, metrics))
	registry.Register(openalex.New(openalex.Config{
		BaseURL:   cfg.Sources.OpenAlex.BaseURL,
		Email:     cfg.Sources.OpenAlex.Email,
		Timeout:   cfg.Sources.OpenAlex.Timeout,
		RateLimit: cfg.Sources.OpenAlex.RateLimit,
		BurstSize: cfg.Sources.OpenAlex.BurstSize,
		Enabled:   cfg.Sources.OpenAlex.Enabled,
	}, metrics))
	registry.Register(scopus.New(scopus.Config{
		BaseURL:   cfg.Sources.Scopus.BaseURL,
		APIKey:    cfg.Sources.Scopus.APIKey,
		Timeout:   cfg.Sources.Scopus.Timeout,
		RateLimit: cfg.Sources.Scopus.RateLimit,
		BurstSize: cfg.Sources.Scopus.BurstSize,
		Enabled:   cfg.Sources.Scopus.Enabled,
	}, metrics))
	registry.Register(datacite.New(datacite.Config{
		BaseURL:   cfg.Sources.DataCite.BaseURL,
		Timeout:   cfg.Sources.DataCite.Timeout,
		RateLimit: cfg.Sources.DataCite.RateLimit,
		BurstSize: cfg.Sources.DataCite.BurstSize,
		Enabled:   cfg.Sources.DataCite.Enabled,
	}, metrics))
	registry.Register(unpaywall.New(unpaywall.Config{
		BaseURL:   cfg.Sources.Unpaywall.BaseURL,
		Email:     cfg.Sources.Unpaywall.Email,
		Timeout:   cfg.Sources.Unpaywall.Timeout,
		RateLimit: cfg.Sources.Unpaywall.RateLimit,
		BurstSize: cfg.Sources.Unpaywall.BurstSize,
		Enabled:   cfg.Sources.Unpaywall.Enabled,
	}, metrics))
	registry.Register(europepmc.New(europepmc.Config{
		BaseURL:   cfg.Sources.EuropePMC.BaseURL,
		Timeout:   cfg.Sources.EuropePMC.Timeout,
		RateLimit: cfg.Sources.EuropePMC.RateLimit,
		BurstSize: cfg.Sources.EuropePMC.BurstSize,
		Enabled:   cfg.Sources.EuropePMC.Enabled,
	}, metrics))
	registry.Register(semanticscholar.New(semanticscholar.Config{
		BaseURL:   cfg.Sources.SemanticScholar.BaseURL,
		APIKey:    cfg.Sources.SemanticScholar.APIKey,
		Timeout:   cfg.Sources.SemanticScholar.Timeout,
		RateLimit: cfg.Sources.SemanticScholar.RateLimit,
		BurstSize: cfg.Sources.SemanticScholar.BurstSize,
		Enabled:   cfg.Sources.SemanticScholar.Enabled,
	}, metrics))
	return registry
}

// readInput reads the whole JSON-lines export from a file or stdin.
func readInput(path string, logger zerolog.Logger, metrics *observability.Metrics) ([]*domain.BibRecord, error) {
	reader := ingest.NewReader(logger, metrics)
	if path == "-" {
		return reader.Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return reader.Read(f)
}

// writeOutput opens the destination and runs the write function against it.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
