package scoring

import (
	"math"

	"github.com/noah-isme/sma-score-engine/internal/models"
)

// WeightedScore rescales a raw score to the method's percentage contribution.
func WeightedScore(raw float64, method models.EvaluationMethod) float64 {
	if method.FullScore <= 0 {
		return 0
	}
	return raw * method.Weight / method.FullScore
}

// SumScore totals the weighted contributions of the given scores, counting only
// scores whose evaluation method is part of methods. Weighted values are derived
// from the raw score and the current method definition. The boolean is false when
// none of the scores belongs to methods.
func SumScore(scores []models.Score, methods []models.EvaluationMethod) (float64, bool) {
	byID := make(map[string]models.EvaluationMethod, len(methods))
	for _, m := range methods {
		byID[m.ID] = m
	}
	var (
		sum   float64
		found bool
	)
	for _, s := range scores {
		method, ok := byID[s.EvaluationMethodID]
		if !ok {
			continue
		}
		sum += WeightedScore(s.RawScore, method)
		found = true
	}
	return sum, found
}

// OriginalScore rounds a weighted sum half-up to the nearest integer.
func OriginalScore(sum float64) int {
	return int(math.Floor(sum + 0.5))
}
