package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	"github.com/noah-isme/sma-score-engine/internal/scoring"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

type scoreWriter interface {
	Upsert(ctx context.Context, score *models.Score) error
	BulkUpsert(ctx context.Context, scores []models.Score) error
}

type methodLookup interface {
	FindByID(ctx context.Context, id string) (*models.EvaluationMethod, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.EvaluationMethod, error)
}

type classroomLocator interface {
	FindByStudent(ctx context.Context, studentID string, year int) (*models.Classroom, error)
}

type summaryRecomputer interface {
	Recompute(ctx context.Context, req RecomputeRequest) (*RecomputeResult, error)
}

// UpsertScoreRequest records one raw score.
type UpsertScoreRequest struct {
	StudentID          string   `json:"student_id" validate:"required"`
	EvaluationMethodID string   `json:"evaluation_method_id" validate:"required"`
	RawScore           *float64 `json:"raw_score" validate:"required"`
}

// BulkUpsertScoresRequest records many raw scores in one transaction.
type BulkUpsertScoresRequest struct {
	Items []UpsertScoreRequest `json:"items" validate:"required,min=1,dive"`
}

// ScoreWriteResult returns the stored scores and the recomputes they triggered.
type ScoreWriteResult struct {
	Scores     []models.Score     `json:"scores"`
	Recomputed []models.SummaryKey `json:"recomputed"`
}

// ScoreServiceConfig bounds score writes.
type ScoreServiceConfig struct {
	MaxBulkItems int
}

// ScoreService validates and stores raw scores, then refreshes the affected summaries.
type ScoreService struct {
	scores     scoreWriter
	methods    methodLookup
	classrooms classroomLocator
	recomputer summaryRecomputer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     ScoreServiceConfig
}

// NewScoreService constructs ScoreService.
func NewScoreService(scores scoreWriter, methods methodLookup, classrooms classroomLocator, recomputer summaryRecomputer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ScoreServiceConfig) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBulkItems <= 0 {
		cfg.MaxBulkItems = 500
	}
	return &ScoreService{
		scores:     scores,
		methods:    methods,
		classrooms: classrooms,
		recomputer: recomputer,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		config:     cfg,
	}
}

// Upsert stores a single raw score and recomputes the subject for the student's classroom.
func (s *ScoreService) Upsert(ctx context.Context, req UpsertScoreRequest) (*ScoreWriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	method, err := s.methods.FindByID(ctx, req.EvaluationMethodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation method not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation method")
	}

	score, key, err := s.prepare(ctx, req, *method, map[classroomRef]*models.Classroom{})
	if err != nil {
		return nil, err
	}
	if err := s.scores.Upsert(ctx, &score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
	}
	s.metrics.AddScoresWritten(1)

	result := &ScoreWriteResult{Scores: []models.Score{score}}
	keys := []models.SummaryKey{key}
	result.Recomputed, err = s.recompute(ctx, keys)
	return result, err
}

// BulkUpsert validates every item up front, stores all scores in one transaction
// and runs one recompute per distinct (year, semester, grade, class, subject).
func (s *ScoreService) BulkUpsert(ctx context.Context, req BulkUpsertScoresRequest) (*ScoreWriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk score payload")
	}
	if len(req.Items) > s.config.MaxBulkItems {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d scores per request", s.config.MaxBulkItems))
	}

	methodIDs := make([]string, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	for _, item := range req.Items {
		if _, ok := seen[item.EvaluationMethodID]; ok {
			continue
		}
		seen[item.EvaluationMethodID] = struct{}{}
		methodIDs = append(methodIDs, item.EvaluationMethodID)
	}
	methods, err := s.methods.FindByIDs(ctx, methodIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation methods")
	}

	classrooms := make(map[classroomRef]*models.Classroom)
	scores := make([]models.Score, 0, len(req.Items))
	keySet := make(map[models.SummaryKey]struct{})
	for i, item := range req.Items {
		method, ok := methods[item.EvaluationMethodID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("item %d: evaluation method %s not found", i, item.EvaluationMethodID))
		}
		score, key, err := s.prepare(ctx, item, method, classrooms)
		if err != nil {
			e := appErrors.FromError(err)
			return nil, appErrors.Clone(e, fmt.Sprintf("item %d: %s", i, e.Message))
		}
		scores = append(scores, score)
		keySet[key] = struct{}{}
	}

	if err := s.scores.BulkUpsert(ctx, scores); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scores")
	}
	s.metrics.AddScoresWritten(len(scores))

	keys := make([]models.SummaryKey, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sortSummaryKeys(keys)

	result := &ScoreWriteResult{Scores: scores}
	result.Recomputed, err = s.recompute(ctx, keys)
	return result, err
}

type classroomRef struct {
	studentID string
	year      int
}

// prepare validates one score against its method and the student's classroom
// and returns the score to store with the summary key it affects.
func (s *ScoreService) prepare(ctx context.Context, req UpsertScoreRequest, method models.EvaluationMethod, classrooms map[classroomRef]*models.Classroom) (models.Score, models.SummaryKey, error) {
	raw := *req.RawScore
	if err := scoring.ValidateScore(raw, method); err != nil {
		return models.Score{}, models.SummaryKey{}, err
	}

	ref := classroomRef{studentID: req.StudentID, year: method.Year}
	classroom, ok := classrooms[ref]
	if !ok {
		found, err := s.classrooms.FindByStudent(ctx, req.StudentID, method.Year)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.Score{}, models.SummaryKey{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s has no classroom in %d", req.StudentID, method.Year))
			}
			return models.Score{}, models.SummaryKey{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
		}
		classrooms[ref] = found
		classroom = found
	}
	if classroom.Grade != method.Grade {
		return models.Score{}, models.SummaryKey{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("evaluation method %s is for grade %d, student %s is in grade %d", method.ID, method.Grade, req.StudentID, classroom.Grade))
	}

	score := models.Score{
		StudentID:          req.StudentID,
		EvaluationMethodID: method.ID,
		RawScore:           raw,
		WeightedScore:      scoring.WeightedScore(raw, method),
	}
	key := models.SummaryKey{
		Year:      method.Year,
		Semester:  method.Semester,
		Grade:     classroom.Grade,
		ClassNum:  classroom.ClassNum,
		SubjectID: method.SubjectID,
	}
	return score, key, nil
}

func (s *ScoreService) recompute(ctx context.Context, keys []models.SummaryKey) ([]models.SummaryKey, error) {
	done := make([]models.SummaryKey, 0, len(keys))
	var errs error
	for _, key := range keys {
		_, err := s.recomputer.Recompute(ctx, RecomputeRequest{
			Year:      key.Year,
			Semester:  key.Semester,
			Grade:     key.Grade,
			ClassNum:  key.ClassNum,
			SubjectID: key.SubjectID,
		})
		if err != nil {
			s.logger.Error("recompute after score write failed", zap.Any("key", key), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		done = append(done, key)
	}
	if errs != nil {
		return done, appErrors.Wrap(errs, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scores saved but summaries were not refreshed")
	}
	return done, nil
}

func sortSummaryKeys(keys []models.SummaryKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Semester != b.Semester {
			return a.Semester < b.Semester
		}
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.ClassNum != b.ClassNum {
			return a.ClassNum < b.ClassNum
		}
		return a.SubjectID < b.SubjectID
	})
}
