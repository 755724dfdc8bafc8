package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	"github.com/noah-isme/sma-score-engine/internal/scoring"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

// Recompute outcomes per subject.
const (
	RecomputeReplaced = "replaced"
	RecomputeSkipped  = "skipped"
	RecomputeFailed   = "failed"
)

type rosterReader interface {
	FindByNumber(ctx context.Context, year, grade, classNum int) (*models.Classroom, error)
	ListStudentIDs(ctx context.Context, classroomID string) ([]string, error)
}

type methodScopeReader interface {
	ListByScope(ctx context.Context, scope models.EvaluationScope) ([]models.EvaluationMethod, error)
	ListSubjectIDs(ctx context.Context, year, semester, grade int) ([]string, error)
}

type cohortScoreReader interface {
	FindByStudentsAndMethods(ctx context.Context, studentIDs, methodIDs []string) (map[string][]models.Score, error)
}

type summaryStore interface {
	ReplaceSummaries(ctx context.Context, key models.SummaryKey, studentIDs []string, summaries []models.ScoreSummary) error
	FindOne(ctx context.Context, lookup models.SummaryLookup) (*models.ScoreSummary, error)
	FindByID(ctx context.Context, id string) (*models.ScoreSummary, error)
	UpdateFeedback(ctx context.Context, id string, feedback *string) (bool, error)
	ListClassSheet(ctx context.Context, filter models.SummaryFilter) ([]models.ClassSheetRow, error)
}

// SummaryListener is told about every committed summary replacement.
type SummaryListener interface {
	SummariesReplaced(ctx context.Context, key models.SummaryKey, studentIDs []string)
}

// RecomputeRequest addresses one classroom in a term. An empty SubjectID
// recomputes every subject that has evaluation methods for the grade.
type RecomputeRequest struct {
	Year      int    `json:"year" validate:"required,min=2000"`
	Semester  int    `json:"semester" validate:"required,oneof=1 2"`
	Grade     int    `json:"grade" validate:"required,min=1,max=12"`
	ClassNum  int    `json:"class_num" validate:"required,min=1"`
	SubjectID string `json:"subject_id"`
}

// RecomputeResult reports what happened to each subject in scope.
type RecomputeResult struct {
	Replaced []string `json:"replaced"`
	Skipped  []string `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
	Written  int      `json:"written"`
}

// FeedbackRequest edits the teacher comment of a summary. A nil Feedback clears it.
type FeedbackRequest struct {
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

// SummaryServiceConfig tunes recompute behaviour.
type SummaryServiceConfig struct {
	RecomputeTimeout time.Duration
}

// SummaryService recomputes and serves score summaries.
type SummaryService struct {
	rosters   rosterReader
	methods   methodScopeReader
	scores    cohortScoreReader
	summaries summaryStore
	cache     *CacheService
	metrics   *MetricsService
	listener  SummaryListener
	validator *validator.Validate
	logger    *zap.Logger
	config    SummaryServiceConfig
	now       func() time.Time
}

// NewSummaryService constructs SummaryService.
func NewSummaryService(rosters rosterReader, methods methodScopeReader, scores cohortScoreReader, summaries summaryStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SummaryServiceConfig) *SummaryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		rosters:   rosters,
		methods:   methods,
		scores:    scores,
		summaries: summaries,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OnReplaced registers the listener notified after each committed replacement.
func (s *SummaryService) OnReplaced(listener SummaryListener) {
	s.listener = listener
}

// Recompute rebuilds the summaries of a classroom. Subjects are processed one
// at a time, each in its own transaction; a failing subject does not stop the
// others and its error is returned combined with any other failures.
func (s *SummaryService) Recompute(ctx context.Context, req RecomputeRequest) (*RecomputeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recompute payload")
	}
	if s.config.RecomputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RecomputeTimeout)
		defer cancel()
	}

	classroom, err := s.rosters.FindByNumber(ctx, req.Year, req.Grade, req.ClassNum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	studentIDs, err := s.rosters.ListStudentIDs(ctx, classroom.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	subjects := []string{req.SubjectID}
	if req.SubjectID == "" {
		subjects, err = s.methods.ListSubjectIDs(ctx, req.Year, req.Semester, req.Grade)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subjects")
		}
	}

	result := &RecomputeResult{Replaced: []string{}, Skipped: []string{}}
	var errs error
	for _, subjectID := range subjects {
		key := models.SummaryKey{Year: req.Year, Semester: req.Semester, Grade: req.Grade, ClassNum: req.ClassNum, SubjectID: subjectID}
		start := time.Now()
		outcome, written, err := s.recomputeSubject(ctx, key, studentIDs, req.SubjectID != "")
		s.metrics.ObserveRecompute(outcome, written, time.Since(start))

		switch outcome {
		case RecomputeReplaced:
			result.Replaced = append(result.Replaced, subjectID)
			result.Written += written
		case RecomputeSkipped:
			result.Skipped = append(result.Skipped, subjectID)
		default:
			result.Failed = append(result.Failed, subjectID)
			s.logger.Error("summary recompute failed",
				zap.String("subject_id", subjectID),
				zap.Int("year", key.Year),
				zap.Int("semester", key.Semester),
				zap.Int("grade", key.Grade),
				zap.Int("class_num", key.ClassNum),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("subject %s: %w", subjectID, err))
		}
	}

	s.logger.Info("summaries recomputed",
		zap.String("classroom_id", classroom.ID),
		zap.Int("students", len(studentIDs)),
		zap.Strings("replaced", result.Replaced),
		zap.Strings("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))

	if errs != nil {
		if len(multierr.Errors(errs)) == 1 {
			return result, appErrors.FromError(errs)
		}
		return result, appErrors.Wrap(errs, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("%d of %d subjects failed to recompute", len(result.Failed), len(subjects)))
	}
	return result, nil
}

func (s *SummaryService) recomputeSubject(ctx context.Context, key models.SummaryKey, studentIDs []string, explicit bool) (string, int, error) {
	methods, err := s.methods.ListByScope(ctx, models.EvaluationScope{SubjectID: key.SubjectID, Year: key.Year, Semester: key.Semester, Grade: key.Grade})
	if err != nil {
		return RecomputeFailed, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation methods")
	}
	if len(methods) == 0 {
		if explicit {
			return RecomputeFailed, 0, appErrors.Clone(appErrors.ErrNotFound, "subject has no evaluation methods for the term")
		}
		return RecomputeSkipped, 0, nil
	}
	if len(studentIDs) == 0 {
		return RecomputeSkipped, 0, nil
	}

	methodIDs := make([]string, len(methods))
	for i, m := range methods {
		methodIDs[i] = m.ID
	}
	scoresByStudent, err := s.scores.FindByStudentsAndMethods(ctx, studentIDs, methodIDs)
	if err != nil {
		return RecomputeFailed, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	sums := make(map[string]float64, len(studentIDs))
	for _, studentID := range studentIDs {
		if sum, ok := scoring.SumScore(scoresByStudent[studentID], methods); ok {
			sums[studentID] = sum
		}
	}
	if len(sums) == 0 {
		return RecomputeSkipped, 0, nil
	}

	summaries := buildSummaries(key, sums, s.now())
	if err := s.summaries.ReplaceSummaries(ctx, key, studentIDs, summaries); err != nil {
		return RecomputeFailed, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace summaries")
	}

	if err := s.cache.InvalidateSummaries(ctx, key.SubjectID, studentIDs); err != nil {
		s.logger.Warn("summary cache not invalidated", zap.String("subject_id", key.SubjectID), zap.Error(err))
	}
	if s.listener != nil {
		scored := make([]string, 0, len(summaries))
		for _, summary := range summaries {
			scored = append(scored, summary.StudentID)
		}
		s.listener.SummariesReplaced(ctx, key, scored)
	}
	return RecomputeReplaced, len(summaries), nil
}

// buildSummaries ranks the cohort and derives statistics and bands. Only
// students present in sums take part; the cohort size is len(sums).
func buildSummaries(key models.SummaryKey, sums map[string]float64, calculatedAt time.Time) []models.ScoreSummary {
	values := make([]float64, 0, len(sums))
	for _, v := range sums {
		values = append(values, v)
	}
	average := scoring.Average(values)
	stdDev := scoring.StandardDeviation(values)
	total := len(sums)

	standings := scoring.Standings(sums)
	out := make([]models.ScoreSummary, 0, len(standings))
	for _, st := range standings {
		grade := scoring.GradeFor(st.Rank, total)
		out = append(out, models.ScoreSummary{
			StudentID:         st.StudentID,
			SubjectID:         key.SubjectID,
			Year:              key.Year,
			Semester:          key.Semester,
			Grade:             key.Grade,
			ClassNum:          key.ClassNum,
			SumScore:          st.Score,
			OriginalScore:     scoring.OriginalScore(st.Score),
			Average:           average,
			StdDeviation:      stdDev,
			Rank:              st.Rank,
			AchievementGrade:  grade,
			AchievementLevel:  scoring.AchievementLevel(grade),
			TotalStudentCount: total,
			CalculatedAt:      calculatedAt,
		})
	}
	return out
}

// GetSummary returns a student's subject summary. Zero year or semester
// selects the most recent term.
func (s *SummaryService) GetSummary(ctx context.Context, lookup models.SummaryLookup) (*models.ScoreSummary, error) {
	if lookup.StudentID == "" || lookup.SubjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and subject are required")
	}
	generation, cacheable := s.cache.SummaryGeneration(ctx, lookup.StudentID, lookup.SubjectID)
	if cacheable {
		if cached, ok := s.cache.GetSummary(ctx, lookup, generation); ok {
			return cached, nil
		}
	}

	summary, err := s.summaries.FindOne(ctx, lookup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "summary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load summary")
	}
	if cacheable {
		s.cache.SetSummary(ctx, lookup, generation, summary)
	}
	return summary, nil
}

// UpdateFeedback replaces the feedback text of a summary in place.
func (s *SummaryService) UpdateFeedback(ctx context.Context, id string, req FeedbackRequest) (*models.ScoreSummary, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "summary id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	updated, err := s.summaries.UpdateFeedback(ctx, id, req.Feedback)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update feedback")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "summary not found")
	}

	summary, err := s.summaries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "summary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load summary")
	}
	if err := s.cache.InvalidateSummaries(ctx, summary.SubjectID, []string{summary.StudentID}); err != nil {
		s.logger.Warn("summary cache not invalidated", zap.String("summary_id", id), zap.Error(err))
	}
	return summary, nil
}

// ClassSheet lists the class summaries of one subject ordered by rank.
func (s *SummaryService) ClassSheet(ctx context.Context, filter models.SummaryFilter) ([]models.ClassSheetRow, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class sheet filter")
	}
	rows, err := s.summaries.ListClassSheet(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list summaries")
	}
	return rows, nil
}
