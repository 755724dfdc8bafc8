package models

import "time"

// Classroom is a homeroom section identified by year, grade level and class number.
type Classroom struct {
	ID                string    `db:"id" json:"id"`
	Year              int       `db:"year" json:"year"`
	Grade             int       `db:"grade" json:"grade"`
	ClassNum          int       `db:"class_num" json:"class_num"`
	HomeroomTeacherID *string   `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
