package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-score-engine/internal/models"
)

const classroomColumns = `c.id, c.year, c.grade, c.class_num, c.homeroom_teacher_id, c.created_at`

// ClassroomRepository resolves classrooms and their rosters.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// FindByNumber returns the classroom for a year, grade level and class number.
func (r *ClassroomRepository) FindByNumber(ctx context.Context, year, grade, classNum int) (*models.Classroom, error) {
	const query = `SELECT ` + classroomColumns + ` FROM classrooms c WHERE c.year = $1 AND c.grade = $2 AND c.class_num = $3`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, year, grade, classNum); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// FindByStudent returns the classroom a student belongs to in the given year.
func (r *ClassroomRepository) FindByStudent(ctx context.Context, studentID string, year int) (*models.Classroom, error) {
	const query = `SELECT ` + classroomColumns + ` FROM classrooms c
        JOIN classroom_students cs ON cs.classroom_id = c.id
        WHERE cs.student_id = $1 AND c.year = $2
        LIMIT 1`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, studentID, year); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// ListStudentIDs returns the roster of a classroom ordered by student number.
func (r *ClassroomRepository) ListStudentIDs(ctx context.Context, classroomID string) ([]string, error) {
	const query = `SELECT student_id FROM classroom_students WHERE classroom_id = $1 ORDER BY student_number, student_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom students: %w", err)
	}
	return ids, nil
}
