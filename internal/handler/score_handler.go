package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-engine/internal/service"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
	"github.com/noah-isme/sma-score-engine/pkg/response"
)

type scoreService interface {
	Upsert(ctx context.Context, req service.UpsertScoreRequest) (*service.ScoreWriteResult, error)
	BulkUpsert(ctx context.Context, req service.BulkUpsertScoresRequest) (*service.ScoreWriteResult, error)
}

// ScoreHandler exposes raw score entry endpoints.
type ScoreHandler struct {
	scores scoreService
}

// NewScoreHandler constructs handler.
func NewScoreHandler(scores scoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// Upsert godoc
// @Summary Record a raw score
// @Description Stores the score and recomputes the subject summaries of the student's class.
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.UpsertScoreRequest true "Score"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Upsert(c *gin.Context) {
	var req service.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.scores.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Bulk godoc
// @Summary Record raw scores in bulk
// @Description All items are validated before any is stored; one recompute runs per affected class and subject.
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.BulkUpsertScoresRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores/bulk [post]
func (h *ScoreHandler) Bulk(c *gin.Context) {
	var req service.BulkUpsertScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.scores.BulkUpsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"count": len(result.Scores)})
}
