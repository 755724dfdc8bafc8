package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-score-engine/internal/models"
)

const summaryColumns = `id, student_id, subject_id, year, semester, grade_level, class_num, sum_score, original_score,
        average, std_deviation, rank, achievement_grade, achievement_level, total_student_count, feedback, calculated_at`

const insertSummaryQuery = `INSERT INTO score_summaries (` + summaryColumns + `)
        VALUES (:id, :student_id, :subject_id, :year, :semester, :grade_level, :class_num, :sum_score, :original_score,
        :average, :std_deviation, :rank, :achievement_grade, :achievement_level, :total_student_count, :feedback, :calculated_at)`

// ScoreSummaryRepository stores computed summaries.
type ScoreSummaryRepository struct {
	db *sqlx.DB
}

// NewScoreSummaryRepository constructs repository.
func NewScoreSummaryRepository(db *sqlx.DB) *ScoreSummaryRepository {
	return &ScoreSummaryRepository{db: db}
}

// LockKey is the advisory lock name serialising replacements of one summary set.
func LockKey(key models.SummaryKey) string {
	return fmt.Sprintf("score_summaries:%d:%d:%d:%d:%s", key.Year, key.Semester, key.Grade, key.ClassNum, key.SubjectID)
}

// ReplaceSummaries deletes the subject's summaries for the cohort and inserts the
// fresh set in one transaction. A transaction-scoped advisory lock on the key keeps
// concurrent replacements of the same set from interleaving. Teacher feedback of a
// replaced row is copied onto the new row of the same student.
func (r *ScoreSummaryRepository) ReplaceSummaries(ctx context.Context, key models.SummaryKey, studentIDs []string, summaries []models.ScoreSummary) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin summaries tx: %w", err)
	}
	if err := replaceInTx(ctx, tx, key, studentIDs, summaries); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit summaries: %w", err)
	}
	return nil
}

func replaceInTx(ctx context.Context, tx *sqlx.Tx, key models.SummaryKey, studentIDs []string, summaries []models.ScoreSummary) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, LockKey(key)); err != nil {
		return fmt.Errorf("lock summaries: %w", err)
	}

	const feedbackQuery = `SELECT student_id, feedback FROM score_summaries
        WHERE subject_id = $1 AND year = $2 AND semester = $3 AND student_id = ANY($4) AND feedback IS NOT NULL`
	rows, err := tx.QueryxContext(ctx, feedbackQuery, key.SubjectID, key.Year, key.Semester, pq.Array(studentIDs))
	if err != nil {
		return fmt.Errorf("load summary feedback: %w", err)
	}
	feedback := make(map[string]string)
	for rows.Next() {
		var studentID, text string
		if err := rows.Scan(&studentID, &text); err != nil {
			rows.Close()
			return fmt.Errorf("scan summary feedback: %w", err)
		}
		feedback[studentID] = text
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate summary feedback: %w", err)
	}

	const deleteQuery = `DELETE FROM score_summaries
        WHERE subject_id = $1 AND year = $2 AND semester = $3 AND student_id = ANY($4)`
	if _, err := tx.ExecContext(ctx, deleteQuery, key.SubjectID, key.Year, key.Semester, pq.Array(studentIDs)); err != nil {
		return fmt.Errorf("delete summaries: %w", err)
	}

	now := time.Now().UTC()
	for i := range summaries {
		s := summaries[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CalculatedAt.IsZero() {
			s.CalculatedAt = now
		}
		if text, ok := feedback[s.StudentID]; ok && s.Feedback == nil {
			s.Feedback = &text
		}
		if _, err := tx.NamedExecContext(ctx, insertSummaryQuery, s); err != nil {
			return fmt.Errorf("insert summary: %w", err)
		}
	}
	return nil
}

// FindOne returns the summary addressed by lookup; sql.ErrNoRows when absent.
func (r *ScoreSummaryRepository) FindOne(ctx context.Context, lookup models.SummaryLookup) (*models.ScoreSummary, error) {
	var (
		summary models.ScoreSummary
		err     error
	)
	if lookup.Year == 0 || lookup.Semester == 0 {
		const latest = `SELECT ` + summaryColumns + ` FROM score_summaries
        WHERE student_id = $1 AND subject_id = $2
        ORDER BY year DESC, semester DESC LIMIT 1`
		err = r.db.GetContext(ctx, &summary, latest, lookup.StudentID, lookup.SubjectID)
	} else {
		const exact = `SELECT ` + summaryColumns + ` FROM score_summaries
        WHERE student_id = $1 AND subject_id = $2 AND year = $3 AND semester = $4`
		err = r.db.GetContext(ctx, &summary, exact, lookup.StudentID, lookup.SubjectID, lookup.Year, lookup.Semester)
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// FindByID returns a summary by its identifier; sql.ErrNoRows when absent.
func (r *ScoreSummaryRepository) FindByID(ctx context.Context, id string) (*models.ScoreSummary, error) {
	const query = `SELECT ` + summaryColumns + ` FROM score_summaries WHERE id = $1`
	var summary models.ScoreSummary
	if err := r.db.GetContext(ctx, &summary, query, id); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdateFeedback edits the teacher feedback of a summary in place. It reports
// whether a row was updated.
func (r *ScoreSummaryRepository) UpdateFeedback(ctx context.Context, id string, feedback *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE score_summaries SET feedback = $2 WHERE id = $1`, id, feedback)
	if err != nil {
		return false, fmt.Errorf("update summary feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update summary feedback: %w", err)
	}
	return affected > 0, nil
}

// ListClassSheet returns a classroom's summaries for a subject ordered by rank.
func (r *ScoreSummaryRepository) ListClassSheet(ctx context.Context, filter models.SummaryFilter) ([]models.ClassSheetRow, error) {
	const query = `SELECT ss.id, ss.student_id, ss.subject_id, ss.year, ss.semester, ss.grade_level, ss.class_num, ss.sum_score,
        ss.original_score, ss.average, ss.std_deviation, ss.rank, ss.achievement_grade, ss.achievement_level,
        ss.total_student_count, ss.feedback, ss.calculated_at, st.name AS student_name, cs.student_number
        FROM score_summaries ss
        JOIN students st ON st.id = ss.student_id
        JOIN classrooms c ON c.year = ss.year AND c.grade = ss.grade_level AND c.class_num = ss.class_num
        JOIN classroom_students cs ON cs.classroom_id = c.id AND cs.student_id = ss.student_id
        WHERE ss.year = $1 AND ss.semester = $2 AND ss.grade_level = $3 AND ss.class_num = $4 AND ss.subject_id = $5
        ORDER BY ss.rank, cs.student_number`
	var rows []models.ClassSheetRow
	if err := r.db.SelectContext(ctx, &rows, query, filter.Year, filter.Semester, filter.Grade, filter.ClassNum, filter.SubjectID); err != nil {
		return nil, fmt.Errorf("list class sheet: %w", err)
	}
	return rows, nil
}
