// Package vecmath holds the similarity arithmetic shared by the
// brute-force vector index implementations.
package vecmath

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b. Vectors of different
// length, or with zero magnitude, score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scored pairs an ID with a similarity score.
type Scored struct {
	ID    string
	Score float64
}

// TopK sorts by descending score, breaking ties on ID ascending, and
// truncates to k.
func TopK(items []Scored, k int) []Scored {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if k >= 0 && len(items) > k {
		items = items[:k]
	}
	return items
}
