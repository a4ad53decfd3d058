package predict

import (
	"sort"
)

// Classifier is a multi-label k-nearest-neighbour classifier over TF-IDF
// vectors. A label's score for a query is the similarity-weighted fraction of
// the query's nearest training documents carrying that label; labels scoring
// at or above the threshold are predicted.
type Classifier struct {
	k         int
	threshold float64

	vectors []vector
	labels  [][]string
}

// NewClassifier creates a classifier with the given neighbourhood size and
// label acceptance threshold.
func NewClassifier(k int, threshold float64) *Classifier {
	return &Classifier{k: k, threshold: threshold}
}

// Train stores the training vectors and their label sets. Vectors and labels
// are parallel slices.
func (c *Classifier) Train(vectors []vector, labels [][]string) {
	c.vectors = vectors
	c.labels = labels
}

// neighbour pairs a training index with its similarity to the query.
type neighbour struct {
	index      int
	similarity float64
}

// Predict returns the labels for one query vector, highest-scoring first.
// Returns nil when the query shares no features with any training document.
func (c *Classifier) Predict(query vector) []string {
	if len(query) == 0 || len(c.vectors) == 0 {
		return nil
	}

	neighbours := make([]neighbour, 0, len(c.vectors))
	for idx, vec := range c.vectors {
		if sim := cosine(query, vec); sim > 0 {
			neighbours = append(neighbours, neighbour{index: idx, similarity: sim})
		}
	}
	if len(neighbours) == 0 {
		return nil
	}

	// Closest first; index tie-break keeps predictions deterministic.
	sort.Slice(neighbours, func(i, j int) bool {
		if neighbours[i].similarity != neighbours[j].similarity {
			return neighbours[i].similarity > neighbours[j].similarity
		}
		return neighbours[i].index < neighbours[j].index
	})
	if len(neighbours) > c.k {
		neighbours = neighbours[:c.k]
	}

	var totalSim float64
	labelScores := make(map[string]float64)
	for _, n := range neighbours {
		totalSim += n.similarity
		for _, label := range c.labels[n.index] {
			labelScores[label] += n.similarity
		}
	}

	var predicted []string
	for label, score := range labelScores {
		if score/totalSim >= c.threshold {
			predicted = append(predicted, label)
		}
	}
	sort.Slice(predicted, func(i, j int) bool {
		if labelScores[predicted[i]] != labelScores[predicted[j]] {
			return labelScores[predicted[i]] > labelScores[predicted[j]]
		}
		return predicted[i] < predicted[j]
	})
	return predicted
}
