package models

import (
	"strings"
	"time"
)

// ExamType classifies an evaluation method.
type ExamType string

const (
	ExamTypeWritten     ExamType = "WRITTEN"
	ExamTypePractical   ExamType = "PRACTICAL"
	ExamTypeMidterm     ExamType = "MIDTERM"
	ExamTypeFinal       ExamType = "FINAL"
	ExamTypePerformance ExamType = "PERFORMANCE"
)

var examTypes = map[ExamType]struct{}{
	ExamTypeWritten:     {},
	ExamTypePractical:   {},
	ExamTypeMidterm:     {},
	ExamTypeFinal:       {},
	ExamTypePerformance: {},
}

// ParseExamType normalises raw input into a known ExamType.
func ParseExamType(raw string) (ExamType, bool) {
	t := ExamType(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := examTypes[t]
	return t, ok
}

// EvaluationMethod is one gradable component of a subject for a term and grade level.
// Weight is the percentage contribution toward the subject total and FullScore the raw ceiling.
type EvaluationMethod struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Year      int       `db:"year" json:"year"`
	Semester  int       `db:"semester" json:"semester"`
	Grade     int       `db:"grade" json:"grade"`
	ExamType  ExamType  `db:"exam_type" json:"exam_type"`
	Title     string    `db:"title" json:"title"`
	Weight    float64   `db:"weight" json:"weight"`
	FullScore float64   `db:"full_score" json:"full_score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EvaluationScope selects the evaluation methods of a subject within a term.
type EvaluationScope struct {
	SubjectID string `form:"subjectId" json:"subject_id"`
	Year      int    `form:"year" json:"year" validate:"required,min=2000"`
	Semester  int    `form:"semester" json:"semester" validate:"required,oneof=1 2"`
	Grade     int    `form:"grade" json:"grade" validate:"required,min=1,max=12"`
}
