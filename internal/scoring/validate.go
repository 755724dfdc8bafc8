package scoring

import (
	"fmt"
	"math"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

// ValidateScore checks a raw score against the bounds of its evaluation method.
// NaN and infinities are rejected before the range checks since neither bound
// comparison catches NaN.
func ValidateScore(raw float64, method models.EvaluationMethod) error {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return appErrors.Clone(appErrors.ErrScoreNotFinite, fmt.Sprintf("score for %q must be a finite number", method.Title))
	}
	if raw < 0 {
		return appErrors.Clone(appErrors.ErrScoreNegative, fmt.Sprintf("score %g for %q must not be negative", raw, method.Title))
	}
	if raw > method.FullScore {
		return appErrors.Clone(appErrors.ErrScoreOverFull, fmt.Sprintf("score %g for %q exceeds full score %g", raw, method.Title, method.FullScore))
	}
	return nil
}
