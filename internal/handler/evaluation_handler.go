package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-engine/internal/models"
	"github.com/noah-isme/sma-score-engine/internal/service"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
	"github.com/noah-isme/sma-score-engine/pkg/response"
)

type evaluationService interface {
	Create(ctx context.Context, req service.CreateEvaluationMethodRequest) (*models.EvaluationMethod, error)
	List(ctx context.Context, scope models.EvaluationScope) ([]models.EvaluationMethod, error)
}

// EvaluationHandler exposes evaluation method endpoints.
type EvaluationHandler struct {
	methods evaluationService
}

// NewEvaluationHandler constructs handler.
func NewEvaluationHandler(methods evaluationService) *EvaluationHandler {
	return &EvaluationHandler{methods: methods}
}

// Create godoc
// @Summary Create an evaluation method
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body service.CreateEvaluationMethodRequest true "Evaluation method"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /evaluation-methods [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req service.CreateEvaluationMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	method, err := h.methods.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, method)
}

// List godoc
// @Summary List evaluation methods of a subject
// @Tags Evaluations
// @Produce json
// @Param subjectId query string true "Subject"
// @Param year query int true "Academic year"
// @Param semester query int true "Semester"
// @Param grade query int true "Grade level"
// @Success 200 {object} response.Envelope
// @Router /evaluation-methods [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	var scope models.EvaluationScope
	if err := c.ShouldBindQuery(&scope); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	methods, err := h.methods.List(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, methods)
}
