package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/enrichsources"
	"github.com/bibmerge/bibmerge/internal/observability"
)

// Config tunes the enrichment orchestrator.
type Config struct {
	// Concurrency bounds the number of records enriched in parallel.
	// Defaults to 4. Within one record, sources are always tried
	// sequentially so fallback order stays meaningful.
	Concurrency int

	// FallbackOrder lists source names in lookup order. Empty falls back to
	// the registry's registration order.
	FallbackOrder []string

	// MaxRetries is the number of extra attempts after a rate-limited
	// lookup before the source is given up for that record. Defaults to 3.
	MaxRetries int

	// BackoffBase is the first retry delay; it doubles per retry.
	// Defaults to 1s.
	BackoffBase time.Duration

	// BackoffCap caps the retry delay. Defaults to 30s.
	BackoffCap time.Duration
}

func (c *Config) applyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffCap == 0 {
		c.BackoffCap = 30 * time.Second
	}
}

// Stats summarizes one enrichment run.
type Stats struct {
	RecordsConsidered int `json:"recordsConsidered"`
	RecordsSkipped    int `json:"recordsSkipped"` // no DOI or nothing empty
	RecordsEnriched   int `json:"recordsEnriched"`

	// FieldsFilled counts fills per canonical field across all records.
	FieldsFilled map[domain.Field]int `json:"fieldsFilled"`

	// Outcomes counts finished source attempts per outcome.
	Outcomes map[Outcome]int `json:"outcomes"`

	// BySource rolls attempts up per source.
	BySource map[string]*SourceStats `json:"bySource"`
}

// SourceStats counts the finished attempts against one source and the fields
// it filled.
type SourceStats struct {
	Attempts    int `json:"attempts"`
	Successes   int `json:"successes"`
	Empty       int `json:"empty"`
	NotFound    int `json:"notFound"`
	RateLimited int `json:"rateLimited"`
	Failed      int `json:"failed"`

	FieldsFilled map[domain.Field]int `json:"fieldsFilled,omitempty"`
}

func (s *SourceStats) record(entry JournalEntry) {
	s.Attempts++
	switch entry.Outcome {
	case OutcomeSuccess:
		s.Successes++
	case OutcomeEmpty:
		s.Empty++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeRateLimited:
		s.RateLimited++
	case OutcomeFailed:
		s.Failed++
	}
	for _, field := range entry.FieldsFilled {
		if s.FieldsFilled == nil {
			s.FieldsFilled = make(map[domain.Field]int)
		}
		s.FieldsFilled[field]++
	}
}

// Orchestrator drives API enrichment over a batch of canonical records.
// Each record with a DOI and at least one empty enrichable field is looked up
// against the sources in fallback order; returned values only ever fill
// fields that are still empty, so earlier sources and the merge always win.
type Orchestrator struct {
	registry *enrichsources.Registry
	cfg      Config
	logger   zerolog.Logger
	metrics  *observability.Metrics

	// sleep is swappable in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error

	// now stamps finished journal entries; swappable in tests.
	now func() time.Time
}

// NewOrchestrator wires an enrichment orchestrator.
func NewOrchestrator(registry *enrichsources.Registry, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		registry: registry,
		cfg:      cfg,
		logger:   logger.With().Str("component", "enrich").Logger(),
		metrics:  metrics,
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// Run enriches the batch in place and returns the run statistics with the
// attempt journal. Per-record failures are absorbed into the journal; the
// only error returned is context cancellation.
func (o *Orchestrator) Run(ctx context.Context, records []*domain.CanonicalRecord) (Stats, []JournalEntry, error) {
	stats := Stats{
		RecordsConsidered: len(records),
		FieldsFilled:      make(map[domain.Field]int),
		Outcomes:          make(map[Outcome]int),
		BySource:          make(map[string]*SourceStats),
	}
	var journal []JournalEntry
	var mu sync.Mutex

	sources := o.registry.Ordered(o.cfg.FallbackOrder)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, rec := range records {
		if !recordNeedsLookup(rec) {
			stats.RecordsSkipped++
			continue
		}

		g.Go(func() error {
			entries := o.enrichRecord(gctx, rec, sources)

			mu.Lock()
			defer mu.Unlock()
			enriched := false
			for _, entry := range entries {
				journal = append(journal, entry)
				stats.Outcomes[entry.Outcome]++
				ss := stats.BySource[entry.Source]
				if ss == nil {
					ss = &SourceStats{}
					stats.BySource[entry.Source] = ss
				}
				ss.record(entry)
				if o.metrics != nil {
					o.metrics.RecordEnrichmentAttempt(string(entry.Outcome))
				}
				for _, field := range entry.FieldsFilled {
					stats.FieldsFilled[field]++
					enriched = true
					if o.metrics != nil {
						o.metrics.RecordFieldFilled("api", string(field))
					}
				}
			}
			if enriched {
				stats.RecordsEnriched++
			}
			return gctx.Err()
		})
	}

	err := g.Wait()

	o.logger.Info().
		Int("records_considered", stats.RecordsConsidered).
		Int("records_skipped", stats.RecordsSkipped).
		Int("records_enriched", stats.RecordsEnriched).
		Int("attempts", len(journal)).
		Msg("api enrichment complete")

	return stats, journal, err
}

// enrichRecord runs the sequential source fallback for one record.
func (o *Orchestrator) enrichRecord(ctx context.Context, rec *domain.CanonicalRecord, sources []enrichsources.MetadataSource) []JournalEntry {
	entries := make([]JournalEntry, 0, len(sources))

	for _, source := range sources {
		if !hasEmptyEnrichableField(rec) {
			break
		}
		entry := o.attemptSource(ctx, rec, source)
		entry.Timestamp = o.now().UTC()
		entries = append(entries, entry)
		if ctx.Err() != nil {
			break
		}
	}
	return entries
}

// attemptSource looks one record up against one source, retrying rate-limited
// lookups with bounded exponential backoff.
func (o *Orchestrator) attemptSource(ctx context.Context, rec *domain.CanonicalRecord, source enrichsources.MetadataSource) JournalEntry {
	entry := JournalEntry{
		RecordID: rec.ID,
		DOI:      rec.DOI,
		Source:   source.Name(),
		Outcome:  OutcomePending,
	}
	logger := observability.WithSourceContext(o.logger, source.Name())

	for retry := 0; ; retry++ {
		values, err := source.Lookup(ctx, rec.DOI)
		if err == nil {
			entry.FieldsFilled = applyValues(rec, values, source.Name())
			if len(entry.FieldsFilled) > 0 {
				entry.Outcome = OutcomeSuccess
			} else {
				entry.Outcome = OutcomeEmpty
			}
			return entry
		}

		var rateErr *domain.RateLimitError
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			entry.Outcome = OutcomeFailed
			entry.Error = err.Error()
			return entry
		case errors.Is(err, domain.ErrNotFound):
			entry.Outcome = OutcomeNotFound
			return entry
		case errors.As(err, &rateErr):
			if retry >= o.cfg.MaxRetries {
				entry.Outcome = OutcomeRateLimited
				entry.Error = err.Error()
				return entry
			}
			entry.Retries++
			delay := o.backoff(retry, rateErr.RetryAfter)
			logger.Debug().
				Str("doi", rec.DOI).
				Dur("delay", delay).
				Int("retry", retry+1).
				Msg("rate limited, backing off")
			if err := o.sleep(ctx, delay); err != nil {
				entry.Outcome = OutcomeFailed
				entry.Error = err.Error()
				return entry
			}
		default:
			entry.Outcome = OutcomeFailed
			entry.Error = err.Error()
			logger.Warn().Err(err).Str("doi", rec.DOI).Msg("lookup failed")
			return entry
		}
	}
}

// backoff computes the delay before retry n (0-based): exponential from the
// base, capped, and never shorter than what the source asked for.
func (o *Orchestrator) backoff(retry int, retryAfter time.Duration) time.Duration {
	delay := o.cfg.BackoffBase << retry
	if delay > o.cfg.BackoffCap || delay <= 0 {
		delay = o.cfg.BackoffCap
	}
	if retryAfter > delay {
		delay = retryAfter
	}
	return delay
}

// applyValues fills still-empty fields from the source's values and returns
// the fields actually filled, in stable enrichable-field order.
func applyValues(rec *domain.CanonicalRecord, values enrichsources.FieldValues, sourceName string) []domain.Field {
	var filled []domain.Field
	origin := domain.APIProvenance(sourceName)
	for _, field := range domain.EnrichableFields() {
		raw, ok := values[field]
		if !ok {
			continue
		}
		if rec.ApplyValue(field, raw, origin) {
			filled = append(filled, field)
		}
	}
	return filled
}

// recordNeedsLookup reports whether a record can and should be enriched:
// lookups key on the DOI, and a fully populated record has nothing to fill.
func recordNeedsLookup(rec *domain.CanonicalRecord) bool {
	return rec.DOI != "" && hasEmptyEnrichableField(rec)
}

func hasEmptyEnrichableField(rec *domain.CanonicalRecord) bool {
	for _, field := range domain.EnrichableFields() {
		if rec.FieldEmpty(field) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
