package search

import "math"

// CosineSimilarity computes the normalized dot product of two vectors,
// range [-1, 1].
//
// Degenerate inputs score 0 instead of failing: mismatched lengths (notes
// embedded under a previous provider dimensionality) and zero-magnitude
// vectors (empty-text embeddings) must not abort scoring of other candidates.
// Never returns NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
