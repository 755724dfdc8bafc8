package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

func TestValidateScore(t *testing.T) {
	method := models.EvaluationMethod{Title: "Midterm", FullScore: 50, Weight: 30}

	cases := []struct {
		name string
		raw  float64
		want *appErrors.Error
	}{
		{name: "negative", raw: -0.5, want: appErrors.ErrScoreNegative},
		{name: "zero", raw: 0},
		{name: "inside", raw: 37.5},
		{name: "full score inclusive", raw: 50},
		{name: "over full", raw: 50.01, want: appErrors.ErrScoreOverFull},
		{name: "nan", raw: math.NaN(), want: appErrors.ErrScoreNotFinite},
		{name: "positive infinity", raw: math.Inf(1), want: appErrors.ErrScoreNotFinite},
		{name: "negative infinity", raw: math.Inf(-1), want: appErrors.ErrScoreNotFinite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScore(tc.raw, method)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.True(t, appErrors.IsValidation(err))
		})
	}
}
