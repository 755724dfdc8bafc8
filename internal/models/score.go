package models

import "time"

// Score stores one raw measurement of a student for an evaluation method.
type Score struct {
	ID                 string    `db:"id" json:"id"`
	StudentID          string    `db:"student_id" json:"student_id"`
	EvaluationMethodID string    `db:"evaluation_method_id" json:"evaluation_method_id"`
	RawScore           float64   `db:"raw_score" json:"raw_score"`
	WeightedScore      float64   `db:"weighted_score" json:"weighted_score"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreSummary is the computed per-subject result of a student for a term.
type ScoreSummary struct {
	ID                string    `db:"id" json:"id"`
	StudentID         string    `db:"student_id" json:"student_id"`
	SubjectID         string    `db:"subject_id" json:"subject_id"`
	Year              int       `db:"year" json:"year"`
	Semester          int       `db:"semester" json:"semester"`
	Grade             int       `db:"grade_level" json:"grade_level"`
	ClassNum          int       `db:"class_num" json:"class_num"`
	SumScore          float64   `db:"sum_score" json:"sum_score"`
	OriginalScore     int       `db:"original_score" json:"original_score"`
	Average           float64   `db:"average" json:"average"`
	StdDeviation      float64   `db:"std_deviation" json:"std_deviation"`
	Rank              int       `db:"rank" json:"rank"`
	AchievementGrade  int       `db:"achievement_grade" json:"grade"`
	AchievementLevel  string    `db:"achievement_level" json:"achievement_level"`
	TotalStudentCount int       `db:"total_student_count" json:"total_student_count"`
	Feedback          *string   `db:"feedback" json:"feedback,omitempty"`
	CalculatedAt      time.Time `db:"calculated_at" json:"calculated_at"`
}

// SummaryKey identifies the recompute unit: one subject for one classroom in a term.
type SummaryKey struct {
	Year      int    `json:"year"`
	Semester  int    `json:"semester"`
	Grade     int    `json:"grade"`
	ClassNum  int    `json:"class_num"`
	SubjectID string `json:"subject_id"`
}

// SummaryLookup addresses a single student's summary. Zero Year/Semester
// selects the most recently calculated term.
type SummaryLookup struct {
	StudentID string
	SubjectID string
	Year      int
	Semester  int
}

// SummaryFilter scopes class sheet queries.
type SummaryFilter struct {
	Year      int    `form:"year" validate:"required,min=2000"`
	Semester  int    `form:"semester" validate:"required,oneof=1 2"`
	Grade     int    `form:"grade" validate:"required,min=1,max=12"`
	ClassNum  int    `form:"classNum" validate:"required,min=1"`
	SubjectID string `form:"subjectId" validate:"required"`
}

// ClassSheetRow joins a summary with the student's display data.
type ClassSheetRow struct {
	ScoreSummary
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber int    `db:"student_number" json:"student_number"`
}
