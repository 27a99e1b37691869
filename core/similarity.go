package core

import "math"

// Similarity scores two vectors under the given metric. Scores are mapped so that
// larger always means closer, using the same normalisation as the Astra Data API:
// cosine and dot product land in [0,1] for unit vectors and euclidean is 1/(1+d²).
func Similarity(metric SimilarityMetric, a, b []float32) float32 {
	switch metric {
	case MetricCosine:
		return (1 + cosine(a, b)) / 2
	case MetricEuclidean:
		return 1 / (1 + squaredDistance(a, b))
	default:
		return (1 + dotProduct(a, b)) / 2
	}
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func cosine(a, b []float32) float32 {
	var normA, normB float64
	for _, v := range a {
		normA += float64(v * v)
	}
	for _, v := range b {
		normB += float64(v * v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(float64(dotProduct(a, b)) / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func squaredDistance(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
