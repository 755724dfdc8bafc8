package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

type countingRecomputer struct {
	inner    summaryRecomputer
	requests []RecomputeRequest
	err      error
}

func (c *countingRecomputer) Recompute(ctx context.Context, req RecomputeRequest) (*RecomputeResult, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if c.inner == nil {
		return &RecomputeResult{}, nil
	}
	return c.inner.Recompute(ctx, req)
}

func newScoreServiceForTest(store *memStore, recomputer summaryRecomputer, maxBulk int) *ScoreService {
	return NewScoreService(store, store, store, recomputer, nil, nil, zap.NewNop(), ScoreServiceConfig{MaxBulkItems: maxBulk})
}

func TestScoreUpsertStoresWeightedScoreAndRecomputes(t *testing.T) {
	store := seedScenario()
	summaries := newSummaryServiceForTest(store, nil)
	recomputer := &countingRecomputer{inner: summaries}
	svc := newScoreServiceForTest(store, recomputer, 0)

	result, err := svc.Upsert(context.Background(), UpsertScoreRequest{StudentID: "C", EvaluationMethodID: "m1", RawScore: ptrFloat(50)})
	require.NoError(t, err)
	require.Len(t, result.Scores, 1)
	assert.InDelta(t, 30.0, result.Scores[0].WeightedScore, 1e-9)
	assert.Equal(t, []models.SummaryKey{{Year: 2024, Semester: 1, Grade: 10, ClassNum: 1, SubjectID: "math"}}, result.Recomputed)

	require.Len(t, recomputer.requests, 1)
	assert.Equal(t, "math", recomputer.requests[0].SubjectID)
	assert.Len(t, store.summariesFor("math"), 3)
}

func TestScoreUpsertZeroIsValid(t *testing.T) {
	store := seedScenario()
	svc := newScoreServiceForTest(store, &countingRecomputer{}, 0)

	result, err := svc.Upsert(context.Background(), UpsertScoreRequest{StudentID: "C", EvaluationMethodID: "m2", RawScore: ptrFloat(0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Scores[0].WeightedScore)
}

func TestScoreUpsertRejectsInvalidInput(t *testing.T) {
	store := seedScenario()
	recomputer := &countingRecomputer{}
	svc := newScoreServiceForTest(store, recomputer, 0)
	ctx := context.Background()

	cases := []struct {
		name string
		req  UpsertScoreRequest
		want *appErrors.Error
	}{
		{"negative", UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(-1)}, appErrors.ErrScoreNegative},
		{"over full", UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(50.5)}, appErrors.ErrScoreOverFull},
		{"nan", UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(math.NaN())}, appErrors.ErrScoreNotFinite},
		{"missing score", UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "m1"}, appErrors.ErrValidation},
		{"unknown method", UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "nope", RawScore: ptrFloat(1)}, appErrors.ErrNotFound},
		{"not enrolled", UpsertScoreRequest{StudentID: "Z", EvaluationMethodID: "m1", RawScore: ptrFloat(1)}, appErrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	assert.Empty(t, recomputer.requests)
	assert.Len(t, store.scores, 4)
}

func TestScoreUpsertRejectsMethodOfAnotherGrade(t *testing.T) {
	store := seedScenario()
	store.addMethod(models.EvaluationMethod{ID: "g11", SubjectID: "math", Year: 2024, Semester: 1, Grade: 11, Weight: 100, FullScore: 100})
	svc := newScoreServiceForTest(store, &countingRecomputer{}, 0)

	_, err := svc.Upsert(context.Background(), UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "g11", RawScore: ptrFloat(10)})
	assert.True(t, appErrors.IsValidation(err))
}

func TestScoreBulkUpsertRecomputesOncePerKey(t *testing.T) {
	store := seedScenario()
	store.addClassroom("cls-10-2", 2024, 10, 2, "D")
	store.addMethod(models.EvaluationMethod{ID: "b1", SubjectID: "bio", Year: 2024, Semester: 1, Grade: 10, Weight: 100, FullScore: 100})
	recomputer := &countingRecomputer{}
	svc := newScoreServiceForTest(store, recomputer, 0)

	result, err := svc.BulkUpsert(context.Background(), BulkUpsertScoresRequest{Items: []UpsertScoreRequest{
		{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(45)},
		{StudentID: "B", EvaluationMethodID: "m1", RawScore: ptrFloat(35)},
		{StudentID: "C", EvaluationMethodID: "m2", RawScore: ptrFloat(70)},
		{StudentID: "A", EvaluationMethodID: "b1", RawScore: ptrFloat(90)},
		{StudentID: "D", EvaluationMethodID: "m1", RawScore: ptrFloat(20)},
	}})
	require.NoError(t, err)
	assert.Len(t, result.Scores, 5)
	assert.Equal(t, []models.SummaryKey{
		{Year: 2024, Semester: 1, Grade: 10, ClassNum: 1, SubjectID: "bio"},
		{Year: 2024, Semester: 1, Grade: 10, ClassNum: 1, SubjectID: "math"},
		{Year: 2024, Semester: 1, Grade: 10, ClassNum: 2, SubjectID: "math"},
	}, result.Recomputed)
	assert.Len(t, recomputer.requests, 3)
	assert.Equal(t, 45.0, store.scores["A|m1"].RawScore)
}

func TestScoreBulkUpsertIsAllOrNothing(t *testing.T) {
	store := seedScenario()
	recomputer := &countingRecomputer{}
	svc := newScoreServiceForTest(store, recomputer, 0)

	_, err := svc.BulkUpsert(context.Background(), BulkUpsertScoresRequest{Items: []UpsertScoreRequest{
		{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(10)},
		{StudentID: "B", EvaluationMethodID: "m1", RawScore: ptrFloat(51)},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrScoreOverFull))
	assert.Contains(t, err.Error(), "item 1")
	assert.Equal(t, 40.0, store.scores["A|m1"].RawScore)
	assert.Empty(t, recomputer.requests)
}

func TestScoreBulkUpsertLimit(t *testing.T) {
	store := seedScenario()
	svc := newScoreServiceForTest(store, &countingRecomputer{}, 1)

	_, err := svc.BulkUpsert(context.Background(), BulkUpsertScoresRequest{Items: []UpsertScoreRequest{
		{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(1)},
		{StudentID: "B", EvaluationMethodID: "m1", RawScore: ptrFloat(1)},
	}})
	assert.True(t, appErrors.IsValidation(err))
}

func TestScoreUpsertReportsRecomputeFailure(t *testing.T) {
	store := seedScenario()
	svc := newScoreServiceForTest(store, &countingRecomputer{err: errors.New("boom")}, 0)

	result, err := svc.Upsert(context.Background(), UpsertScoreRequest{StudentID: "A", EvaluationMethodID: "m1", RawScore: ptrFloat(1)})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Recomputed)
	assert.Equal(t, 1.0, store.scores["A|m1"].RawScore)
}
