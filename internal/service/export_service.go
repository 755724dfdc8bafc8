package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
	"github.com/noah-isme/sma-score-engine/pkg/export"
)

type classSheetReader interface {
	ClassSheet(ctx context.Context, filter models.SummaryFilter) ([]models.ClassSheetRow, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title string
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders class summary sheets.
type ExportService struct {
	summaries classSheetReader
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(summaries classSheetReader, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Score Summary"
	}
	return &ExportService{summaries: summaries, logger: logger, cfg: cfg}
}

// ClassSheet renders the ranked summaries of a class for one subject.
func (s *ExportService) ClassSheet(ctx context.Context, filter models.SummaryFilter, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	rows, err := s.summaries.ClassSheet(ctx, filter)
	if err != nil {
		return nil, err
	}

	sheet := buildClassSheet(s.cfg.Title, filter, rows)
	body, err := renderer.Render(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("class sheet exported",
		zap.String("subject_id", filter.SubjectID),
		zap.Int("grade", filter.Grade),
		zap.Int("class_num", filter.ClassNum),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)))

	return &ExportFile{
		Filename:    fmt.Sprintf("scores_%d_%d_%d-%d_%s.%s", filter.Year, filter.Semester, filter.Grade, filter.ClassNum, filter.SubjectID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func buildClassSheet(title string, filter models.SummaryFilter, rows []models.ClassSheetRow) export.Sheet {
	sheet := export.Sheet{
		Title:    title,
		Subtitle: fmt.Sprintf("Year %d semester %d, class %d-%d, subject %s", filter.Year, filter.Semester, filter.Grade, filter.ClassNum, filter.SubjectID),
		Columns: []export.Column{
			{Header: "No", Width: 1, Align: "C"},
			{Header: "Student", Width: 5},
			{Header: "Sum", Width: 2, Align: "R"},
			{Header: "Score", Width: 1.5, Align: "R"},
			{Header: "Rank", Width: 1.5, Align: "C"},
			{Header: "Grade", Width: 1.5, Align: "C"},
			{Header: "Level", Width: 1.5, Align: "C"},
			{Header: "Feedback", Width: 6},
		},
	}
	if len(rows) > 0 {
		first := rows[0]
		sheet.Subtitle += fmt.Sprintf(" | average %.2f, std dev %.1f, %d students", first.Average, first.StdDeviation, first.TotalStudentCount)
	}
	for _, row := range rows {
		var feedback string
		if row.Feedback != nil {
			feedback = *row.Feedback
		}
		sheet.AddRow(
			strconv.Itoa(row.StudentNumber),
			row.StudentName,
			strconv.FormatFloat(row.SumScore, 'f', 2, 64),
			strconv.Itoa(row.OriginalScore),
			fmt.Sprintf("%d/%d", row.Rank, row.TotalStudentCount),
			strconv.Itoa(row.AchievementGrade),
			row.AchievementLevel,
			feedback,
		)
	}
	return sheet
}
