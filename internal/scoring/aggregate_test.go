package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-score-engine/internal/models"
)

func TestWeightedScore(t *testing.T) {
	assert.InDelta(t, 24.0, WeightedScore(40, models.EvaluationMethod{FullScore: 50, Weight: 30}), 1e-9)
	assert.InDelta(t, 56.0, WeightedScore(80, models.EvaluationMethod{FullScore: 100, Weight: 70}), 1e-9)
	assert.Equal(t, 0.0, WeightedScore(10, models.EvaluationMethod{FullScore: 0, Weight: 70}))
}

func TestSumScore(t *testing.T) {
	methods := []models.EvaluationMethod{
		{ID: "m1", FullScore: 50, Weight: 30},
		{ID: "m2", FullScore: 100, Weight: 70},
	}
	scores := []models.Score{
		{EvaluationMethodID: "m1", RawScore: 40},
		{EvaluationMethodID: "m2", RawScore: 80},
		{EvaluationMethodID: "other-subject", RawScore: 100},
	}

	sum, ok := SumScore(scores, methods)
	assert.True(t, ok)
	assert.InDelta(t, 80.0, sum, 1e-9)

	_, ok = SumScore([]models.Score{{EvaluationMethodID: "other-subject", RawScore: 1}}, methods)
	assert.False(t, ok)

	sum, ok = SumScore([]models.Score{{EvaluationMethodID: "m1", RawScore: 0}}, methods)
	assert.True(t, ok)
	assert.Equal(t, 0.0, sum)
}

func TestOriginalScore(t *testing.T) {
	assert.Equal(t, 80, OriginalScore(80))
	assert.Equal(t, 81, OriginalScore(80.5))
	assert.Equal(t, 80, OriginalScore(80.49))
	assert.Equal(t, 0, OriginalScore(0.2))
}
