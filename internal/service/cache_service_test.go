package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
)

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	_, ok := nilSvc.GetSummary(context.Background(), models.SummaryLookup{StudentID: "A", SubjectID: "math"}, 0)
	assert.False(t, ok)
	_, ok = nilSvc.SummaryGeneration(context.Background(), "A", "math")
	assert.False(t, ok)
	assert.NoError(t, nilSvc.InvalidateSummaries(context.Background(), "math", []string{"A"}))

	disabled := NewCacheService(newFakeCache(), nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
}

func TestCacheServiceRecordsLookups(t *testing.T) {
	metrics := NewMetricsService()
	repo := newFakeCache()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	lookup := models.SummaryLookup{StudentID: "A", SubjectID: "math", Year: 2024, Semester: 1}

	_, ok := svc.GetSummary(context.Background(), lookup, 0)
	assert.False(t, ok)

	svc.SetSummary(context.Background(), lookup, 0, &models.ScoreSummary{StudentID: "A", Rank: 4})
	cached, ok := svc.GetSummary(context.Background(), lookup, 0)
	assert.True(t, ok)
	assert.Equal(t, 4, cached.Rank)

	repo.getErr = errors.New("connection refused")
	_, ok = svc.GetSummary(context.Background(), lookup, 0)
	assert.False(t, ok)
	_, ok = svc.SummaryGeneration(context.Background(), "A", "math")
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestSummaryCacheKeys(t *testing.T) {
	assert.Equal(t, "summary:A:math:3:2024:1", SummaryKey(models.SummaryLookup{StudentID: "A", SubjectID: "math", Year: 2024, Semester: 1}, 3))
	assert.Equal(t, "summary:A:math:*", SummaryPattern("A", "math"))
	assert.Equal(t, "summary-gen:A:math", SummaryGenerationKey("A", "math"))
}

func TestInvalidateSummariesBumpsGeneration(t *testing.T) {
	repo := newFakeCache()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	lookup := models.SummaryLookup{StudentID: "A", SubjectID: "math"}

	gen, ok := svc.SummaryGeneration(ctx, "A", "math")
	require.True(t, ok)
	assert.Zero(t, gen)

	require.NoError(t, svc.InvalidateSummaries(ctx, "math", []string{"A"}))
	// a reader that took generation 0 before the bump writes after it
	svc.SetSummary(ctx, lookup, gen, &models.ScoreSummary{StudentID: "A", Rank: 1})

	next, ok := svc.SummaryGeneration(ctx, "A", "math")
	require.True(t, ok)
	assert.Equal(t, int64(1), next)
	_, hit := svc.GetSummary(ctx, lookup, next)
	assert.False(t, hit)
}
