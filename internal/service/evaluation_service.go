package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

const maxTotalWeight = 100.0

type evaluationMethodRepo interface {
	CreateGuarded(ctx context.Context, method *models.EvaluationMethod, guard func(existing float64) error) error
	ListByScope(ctx context.Context, scope models.EvaluationScope) ([]models.EvaluationMethod, error)
}

// CreateEvaluationMethodRequest defines a gradable component of a subject.
type CreateEvaluationMethodRequest struct {
	SubjectID string  `json:"subject_id" validate:"required"`
	Year      int     `json:"year" validate:"required,min=2000"`
	Semester  int     `json:"semester" validate:"required,oneof=1 2"`
	Grade     int     `json:"grade" validate:"required,min=1,max=12"`
	ExamType  string  `json:"exam_type" validate:"required"`
	Title     string  `json:"title" validate:"required,max=120"`
	Weight    float64 `json:"weight" validate:"gt=0,lte=100"`
	FullScore float64 `json:"full_score" validate:"gt=0"`
}

// EvaluationService manages evaluation methods and keeps each scope's weights within 100.
type EvaluationService struct {
	repo      evaluationMethodRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(repo evaluationMethodRepo, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{repo: repo, validator: validate, logger: logger}
}

// Create validates and stores an evaluation method.
func (s *EvaluationService) Create(ctx context.Context, req CreateEvaluationMethodRequest) (*models.EvaluationMethod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation method payload")
	}
	examType, ok := models.ParseExamType(req.ExamType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidExamType, fmt.Sprintf("unrecognized exam type %q", req.ExamType))
	}

	method := &models.EvaluationMethod{
		SubjectID: req.SubjectID,
		Year:      req.Year,
		Semester:  req.Semester,
		Grade:     req.Grade,
		ExamType:  examType,
		Title:     strings.TrimSpace(req.Title),
		Weight:    req.Weight,
		FullScore: req.FullScore,
	}
	guard := func(existing float64) error {
		if existing+req.Weight > maxTotalWeight+1e-9 {
			return appErrors.Clone(appErrors.ErrInvalidWeights,
				fmt.Sprintf("weights for the subject would total %g, the limit is %g", existing+req.Weight, maxTotalWeight))
		}
		return nil
	}
	if err := s.repo.CreateGuarded(ctx, method, guard); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation method")
	}
	s.logger.Info("evaluation method created",
		zap.String("id", method.ID),
		zap.String("subject_id", method.SubjectID),
		zap.Float64("weight", method.Weight))
	return method, nil
}

// List returns the evaluation methods of a subject scope.
func (s *EvaluationService) List(ctx context.Context, scope models.EvaluationScope) ([]models.EvaluationMethod, error) {
	if err := s.validator.Struct(scope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation scope")
	}
	if scope.SubjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subjectId is required")
	}
	methods, err := s.repo.ListByScope(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluation methods")
	}
	return methods, nil
}
