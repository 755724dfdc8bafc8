package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-engine/internal/models"
	"github.com/noah-isme/sma-score-engine/internal/service"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
	"github.com/noah-isme/sma-score-engine/pkg/response"
)

type summaryService interface {
	Recompute(ctx context.Context, req service.RecomputeRequest) (*service.RecomputeResult, error)
	GetSummary(ctx context.Context, lookup models.SummaryLookup) (*models.ScoreSummary, error)
	UpdateFeedback(ctx context.Context, id string, req service.FeedbackRequest) (*models.ScoreSummary, error)
	ClassSheet(ctx context.Context, filter models.SummaryFilter) ([]models.ClassSheetRow, error)
}

type summaryExporter interface {
	ClassSheet(ctx context.Context, filter models.SummaryFilter, format string) (*service.ExportFile, error)
}

// SummaryHandler exposes score summary endpoints.
type SummaryHandler struct {
	summaries summaryService
	exports   summaryExporter
}

// NewSummaryHandler constructs handler. A nil exporter disables the export route.
func NewSummaryHandler(summaries summaryService, exports summaryExporter) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, exports: exports}
}

// Recompute godoc
// @Summary Recompute class summaries
// @Description Rebuilds ranks, statistics and achievement bands for one subject, or every subject when subject_id is empty.
// @Tags Summaries
// @Accept json
// @Produce json
// @Param payload body service.RecomputeRequest true "Scope"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /summaries/recompute [post]
func (h *SummaryHandler) Recompute(c *gin.Context) {
	var req service.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.summaries.Recompute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get a student's subject summary
// @Tags Summaries
// @Produce json
// @Param studentId path string true "Student"
// @Param subjectId path string true "Subject"
// @Param year query int false "Academic year, latest when omitted"
// @Param semester query int false "Semester, latest when omitted"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /summaries/{studentId}/{subjectId} [get]
func (h *SummaryHandler) Get(c *gin.Context) {
	year, err := optionalInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	semester, err := optionalInt(c, "semester")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.summaries.GetSummary(c.Request.Context(), models.SummaryLookup{
		StudentID: c.Param("studentId"),
		SubjectID: c.Param("subjectId"),
		Year:      year,
		Semester:  semester,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// List godoc
// @Summary List class summaries ranked
// @Tags Summaries
// @Produce json
// @Param year query int true "Academic year"
// @Param semester query int true "Semester"
// @Param grade query int true "Grade level"
// @Param classNum query int true "Class number"
// @Param subjectId query string true "Subject"
// @Success 200 {object} response.Envelope
// @Router /summaries [get]
func (h *SummaryHandler) List(c *gin.Context) {
	var filter models.SummaryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	rows, err := h.summaries.ClassSheet(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"count": len(rows)})
}

// UpdateFeedback godoc
// @Summary Edit summary feedback
// @Tags Summaries
// @Accept json
// @Produce json
// @Param id path string true "Summary ID"
// @Param payload body service.FeedbackRequest true "Feedback"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /summaries/{id}/feedback [patch]
func (h *SummaryHandler) UpdateFeedback(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.summaries.UpdateFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Export godoc
// @Summary Export class summaries
// @Tags Summaries
// @Produce text/csv
// @Produce application/pdf
// @Param year query int true "Academic year"
// @Param semester query int true "Semester"
// @Param grade query int true "Grade level"
// @Param classNum query int true "Class number"
// @Param subjectId query string true "Subject"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /summaries/export [get]
func (h *SummaryHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	var filter models.SummaryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	file, err := h.exports.ClassSheet(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return v, nil
}
