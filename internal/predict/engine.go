package predict

import (
	"github.com/rs/zerolog"

	"github.com/bibmerge/bibmerge/internal/domain"
	"github.com/bibmerge/bibmerge/internal/observability"
)

// Config tunes the predictive enrichment engine. The gates are policy
// decisions; defaults follow the documented baseline and every value is
// configurable.
type Config struct {
	// MinTrainingRows is the minimum number of labelled records a field
	// needs before a model is trained for it. Defaults to 20.
	MinTrainingRows int

	// MinCoverage is the minimum labelled fraction of the batch a field
	// needs before a model is trained for it. Defaults to 0.05.
	MinCoverage float64

	// Threshold is the label acceptance score cutoff. Defaults to 0.3.
	Threshold float64

	// Neighbours is the kNN neighbourhood size. Defaults to 10.
	Neighbours int

	// MaxFeatures caps the TF-IDF vocabulary. Defaults to 2000.
	MaxFeatures int
}

func (c *Config) applyDefaults() {
	if c.MinTrainingRows == 0 {
		c.MinTrainingRows = 20
	}
	if c.MinCoverage == 0 {
		c.MinCoverage = 0.05
	}
	if c.Threshold == 0 {
		c.Threshold = 0.3
	}
	if c.Neighbours == 0 {
		c.Neighbours = 10
	}
	if c.MaxFeatures == 0 {
		c.MaxFeatures = 2000
	}
}

// ModelSummary reports the outcome of one per-field model.
type ModelSummary struct {
	Field         domain.Field `json:"field"`
	Trained       bool         `json:"trained"`
	TrainingRows  int          `json:"trainingRows"`
	Coverage      float64      `json:"coverage"`
	Vocabulary    int          `json:"vocabulary,omitempty"`
	RecordsFilled int          `json:"recordsFilled"`
	SkipReason    string       `json:"skipReason,omitempty"`
}

// Stats summarizes one prediction run.
type Stats struct {
	Models        []ModelSummary `json:"models"`
	RecordsFilled int            `json:"recordsFilled"`
}

// Engine trains one independent model per predictable field and fills the
// field on records where it is empty. A field whose labelled partition is too
// small or too sparse is skipped, never guessed at; the skip is reported, not
// fatal.
type Engine struct {
	cfg     Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewEngine wires a predictive enrichment engine.
func NewEngine(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg:     cfg,
		logger:  logger.With().Str("component", "predict").Logger(),
		metrics: metrics,
	}
}

// Run predicts over the batch in place and returns the run statistics.
// Fields are processed in the stable predictable-field order; a predicted
// subject-category set also fills the record's empty WoS-category set, since
// the two taxonomies proxy each other.
func (e *Engine) Run(records []*domain.CanonicalRecord) Stats {
	stats := Stats{}
	filledRecords := make(map[int]bool)

	for _, field := range domain.PredictableFields() {
		summary := e.runField(field, records, filledRecords)
		stats.Models = append(stats.Models, summary)

		logger := observability.WithFieldContext(e.logger, string(field))
		if summary.Trained {
			logger.Info().
				Int("training_rows", summary.TrainingRows).
				Int("records_filled", summary.RecordsFilled).
				Msg("field model applied")
		} else {
			logger.Info().
				Int("training_rows", summary.TrainingRows).
				Str("reason", summary.SkipReason).
				Msg("field model skipped")
		}
	}

	stats.RecordsFilled = len(filledRecords)
	return stats
}

// runField trains and applies the model for one field.
func (e *Engine) runField(field domain.Field, records []*domain.CanonicalRecord, filledRecords map[int]bool) ModelSummary {
	summary := ModelSummary{Field: field}

	var trainDocs [][]string
	var trainLabels [][]string
	type target struct {
		index int
		rec   *domain.CanonicalRecord
	}
	var targets []target

	for idx, rec := range records {
		tokens := tokenize(rec.TextBasis())
		if labels := rec.Labels(field); len(labels) > 0 {
			if len(tokens) > 0 {
				trainDocs = append(trainDocs, tokens)
				trainLabels = append(trainLabels, labels)
			}
			continue
		}
		if len(tokens) > 0 {
			targets = append(targets, target{index: idx, rec: rec})
		}
	}

	summary.TrainingRows = len(trainDocs)
	if len(records) > 0 {
		summary.Coverage = float64(len(trainDocs)) / float64(len(records))
	}

	if len(trainDocs) < e.cfg.MinTrainingRows || summary.Coverage < e.cfg.MinCoverage {
		err := &domain.InsufficientTrainingError{
			Field:    field,
			Rows:     summary.TrainingRows,
			Coverage: summary.Coverage,
		}
		summary.SkipReason = err.Error()
		if e.metrics != nil {
			e.metrics.RecordModelSkipped(string(field))
		}
		return summary
	}

	vectorizer := NewVectorizer(e.cfg.MaxFeatures)
	vectorizer.Fit(trainDocs)

	vectors := make([]vector, len(trainDocs))
	for i, doc := range trainDocs {
		vectors[i] = vectorizer.Transform(doc)
	}
	classifier := NewClassifier(e.cfg.Neighbours, e.cfg.Threshold)
	classifier.Train(vectors, trainLabels)

	summary.Trained = true
	summary.Vocabulary = vectorizer.VocabularySize()
	if e.metrics != nil {
		e.metrics.RecordModelTrained(string(field))
	}

	origin := domain.MLProvenance(field)
	for _, tgt := range targets {
		labels := classifier.Predict(vectorizer.Transform(tokenize(tgt.rec.TextBasis())))
		if len(labels) == 0 {
			continue
		}
		if !tgt.rec.ApplyLabels(field, labels, origin) {
			continue
		}
		summary.RecordsFilled++
		filledRecords[tgt.index] = true
		if e.metrics != nil {
			e.metrics.RecordPredictionApplied(string(field))
			e.metrics.RecordFieldFilled("ml", string(field))
		}

		// Predicted subject categories double as WoS categories when those
		// are still empty.
		if field == domain.FieldSubjectCategories {
			if tgt.rec.ApplyLabels(domain.FieldWosCategories, labels, origin) {
				if e.metrics != nil {
					e.metrics.RecordFieldFilled("ml", string(domain.FieldWosCategories))
				}
			}
		}
	}

	return summary
}
