package predict

import (
	"math"
	"sort"
)

// vector is a sparse L2-normalized TF-IDF document vector, keyed by vocabulary
// index.
type vector map[int]float64

// cosine computes the cosine similarity of two normalized vectors, which
// reduces to their dot product. Iterates the smaller vector.
func cosine(a, b vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, weight := range a {
		if other, ok := b[idx]; ok {
			dot += weight * other
		}
	}
	return dot
}

// Vectorizer builds TF-IDF vectors over a fitted vocabulary. The vocabulary
// keeps the most frequent maxFeatures terms of the training corpus; unseen
// terms are ignored at transform time.
type Vectorizer struct {
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{maxFeatures: maxFeatures}
}

// Fit builds the vocabulary and inverse document frequencies from the
// tokenized training corpus.
func (v *Vectorizer) Fit(docs [][]string) {
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, tok := range doc {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	// Most frequent first; alphabetical tie-break keeps the fit
	// deterministic.
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	total := float64(len(docs))
	for idx, term := range terms {
		v.vocabulary[term] = idx
		// Smoothed idf, never zero, so every vocabulary term contributes.
		v.idf[idx] = math.Log((1+total)/(1+float64(docFreq[term]))) + 1
	}
}

// Transform maps a tokenized document onto the fitted vocabulary as an
// L2-normalized TF-IDF vector. Returns an empty vector when no token is in
// the vocabulary.
func (v *Vectorizer) Transform(doc []string) vector {
	counts := make(map[int]int)
	for _, tok := range doc {
		if idx, ok := v.vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return vector{}
	}

	vec := make(vector, len(counts))
	var normSq float64
	for idx, count := range counts {
		weight := float64(count) * v.idf[idx]
		vec[idx] = weight
		normSq += weight * weight
	}
	norm := math.Sqrt(normSq)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

// VocabularySize returns the number of fitted terms.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}
