// Package dedup resolves which bibliographic records denote the same work and
// merges matched records into canonical records with field provenance.
package dedup

import (
	"github.com/bibmerge/bibmerge/internal/domain"
)

// SurnameOverlap computes a Jaccard overlap score between two author lists
// based on normalized surnames. Export formats disagree on given-name
// rendering (full names, initials, "Last, First"), so surnames are the only
// token both databases agree on.
//
// Returns 0.0 if either list is empty, 1.0 when the surname sets are equal.
// The result is symmetric.
func SurnameOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := surnameSet(a)
	setB := surnameSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	matched := 0
	for surname := range setA {
		if setB[surname] {
			matched++
		}
	}

	union := len(setA) + len(setB) - matched
	if union == 0 {
		return 0.0
	}
	return float64(matched) / float64(union)
}

// surnameSet normalizes each author name and collects the distinct surnames.
func surnameSet(authors []string) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, name := range authors {
		surname := domain.Surname(domain.NormalizeAuthor(name))
		if surname != "" {
			set[surname] = true
		}
	}
	return set
}
