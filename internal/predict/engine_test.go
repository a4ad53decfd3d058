package predict

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibmerge/bibmerge/internal/domain"
)

// labelledRecord builds a record with a text basis and subject categories.
func labelledRecord(title, abstract string, categories ...string) *domain.CanonicalRecord {
	return &domain.CanonicalRecord{
		Title:             title,
		Abstract:          abstract,
		SubjectCategories: categories,
	}
}

// corpus builds a small separable training set: medicine texts and computing
// texts with distinct vocabularies.
func corpus() []*domain.CanonicalRecord {
	var records []*domain.CanonicalRecord
	for i := 0; i < 12; i++ {
		records = append(records, labelledRecord(
			fmt.Sprintf("Clinical trial of treatment %d", i),
			"Patients received the drug therapy and clinical outcomes improved.",
			"Medicine",
		))
		records = append(records, labelledRecord(
			fmt.Sprintf("Neural network architecture %d", i),
			"The algorithm trains a deep neural network on labelled data.",
			"Computer Science",
		))
	}
	return records
}

func TestEngineFillsEmptyCategories(t *testing.T) {
	t.Parallel()

	records := corpus()
	unlabelled := &domain.CanonicalRecord{
		Title:    "Training deep neural networks efficiently",
		Abstract: "A new algorithm for deep network training on large data.",
	}
	records = append(records, unlabelled)

	engine := NewEngine(Config{}, zerolog.Nop(), nil)
	stats := engine.Run(records)

	require.Equal(t, []string{"Computer Science"}, unlabelled.SubjectCategories)
	assert.True(t, unlabelled.Provenance[domain.FieldSubjectCategories].IsPredicted())

	// Predicted subject categories double as WoS categories.
	assert.Equal(t, []string{"Computer Science"}, unlabelled.WosCategories)

	var scSummary ModelSummary
	for _, summary := range stats.Models {
		if summary.Field == domain.FieldSubjectCategories {
			scSummary = summary
		}
	}
	assert.True(t, scSummary.Trained)
	assert.Equal(t, 24, scSummary.TrainingRows)
	assert.Equal(t, 1, scSummary.RecordsFilled)
	assert.Equal(t, 1, stats.RecordsFilled)
}

func TestEngineNeverOverwrites(t *testing.T) {
	t.Parallel()

	records := corpus()
	labelled := labelledRecord(
		"Deep networks for medical imaging",
		"The neural network analyses clinical images.",
		"Radiology",
	)
	records = append(records, labelled)

	engine := NewEngine(Config{}, zerolog.Nop(), nil)
	engine.Run(records)

	assert.Equal(t, []string{"Radiology"}, labelled.SubjectCategories)
	assert.False(t, labelled.Provenance[domain.FieldSubjectCategories].IsPredicted())
}

func TestEngineSkipsSparseFields(t *testing.T) {
	t.Parallel()

	// Only 3 labelled rows: below the default minimum of 20.
	records := []*domain.CanonicalRecord{
		labelledRecord("Clinical trial one", "Patients and outcomes.", "Medicine"),
		labelledRecord("Clinical trial two", "Drug therapy results.", "Medicine"),
		labelledRecord("Clinical trial three", "Treatment outcomes.", "Medicine"),
		{Title: "Unlabelled work", Abstract: "Some text."},
	}

	engine := NewEngine(Config{}, zerolog.Nop(), nil)
	stats := engine.Run(records)

	for _, summary := range stats.Models {
		assert.False(t, summary.Trained, "field %s", summary.Field)
		assert.NotEmpty(t, summary.SkipReason)
	}
	assert.Empty(t, records[3].SubjectCategories)
	assert.Equal(t, 0, stats.RecordsFilled)
}

func TestEngineSkipsRecordsWithoutText(t *testing.T) {
	t.Parallel()

	records := corpus()
	blank := &domain.CanonicalRecord{}
	records = append(records, blank)

	engine := NewEngine(Config{}, zerolog.Nop(), nil)
	engine.Run(records)

	assert.Empty(t, blank.SubjectCategories)
}

func TestVectorizerDeterministic(t *testing.T) {
	t.Parallel()

	docs := [][]string{
		tokenize("deep neural networks"),
		tokenize("clinical drug trial"),
		tokenize("deep learning for clinical data"),
	}

	a := NewVectorizer(0)
	a.Fit(docs)
	b := NewVectorizer(0)
	b.Fit(docs)

	vecA := a.Transform(docs[2])
	vecB := b.Transform(docs[2])
	require.Equal(t, vecA, vecB)
	assert.InDelta(t, 1.0, cosine(vecA, vecB), 1e-9)
}

func TestVectorizerMaxFeatures(t *testing.T) {
	t.Parallel()

	docs := [][]string{
		{"alpha", "beta", "gamma"},
		{"alpha", "beta"},
		{"alpha"},
	}

	v := NewVectorizer(2)
	v.Fit(docs)
	assert.Equal(t, 2, v.VocabularySize())

	// Only the two most frequent terms survive; gamma is out of vocabulary.
	vec := v.Transform([]string{"gamma"})
	assert.Empty(t, vec)
}

func TestClassifierThreshold(t *testing.T) {
	t.Parallel()

	v := NewVectorizer(0)
	docs := [][]string{
		{"neural", "network"},
		{"neural", "network", "deep"},
		{"clinical", "trial"},
	}
	v.Fit(docs)

	vectors := make([]vector, len(docs))
	for i, doc := range docs {
		vectors[i] = v.Transform(doc)
	}

	c := NewClassifier(10, 0.3)
	c.Train(vectors, [][]string{{"cs"}, {"cs"}, {"medicine"}})

	labels := c.Predict(v.Transform([]string{"neural", "network", "deep"}))
	assert.Equal(t, []string{"cs"}, labels)

	// A query sharing no vocabulary yields no prediction.
	assert.Nil(t, c.Predict(v.Transform([]string{"unrelated"})))
}
