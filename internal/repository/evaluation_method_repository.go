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

const evaluationMethodColumns = `id, subject_id, year, semester, grade, exam_type, title, weight, full_score, created_at, updated_at`

// EvaluationMethodRepository persists evaluation methods.
type EvaluationMethodRepository struct {
	db *sqlx.DB
}

// NewEvaluationMethodRepository constructs the repository.
func NewEvaluationMethodRepository(db *sqlx.DB) *EvaluationMethodRepository {
	return &EvaluationMethodRepository{db: db}
}

// Create inserts a new evaluation method.
func (r *EvaluationMethodRepository) Create(ctx context.Context, method *models.EvaluationMethod) error {
	return insertMethod(ctx, r.db, method)
}

// CreateGuarded inserts method after guard accepts the weight total already
// configured for its scope. The total is read and the row written in one
// transaction holding an advisory lock on the scope, so concurrent creates for
// the same subject cannot both pass the guard. A guard error is returned as is.
func (r *EvaluationMethodRepository) CreateGuarded(ctx context.Context, method *models.EvaluationMethod, guard func(existing float64) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evaluation method tx: %w", err)
	}
	if err := createGuardedInTx(ctx, tx, method, guard); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluation method: %w", err)
	}
	return nil
}

// WeightLockKey is the advisory lock name serialising weight changes of one scope.
func WeightLockKey(scope models.EvaluationScope) string {
	return fmt.Sprintf("evaluation_methods:%s:%d:%d:%d", scope.SubjectID, scope.Year, scope.Semester, scope.Grade)
}

func createGuardedInTx(ctx context.Context, tx *sqlx.Tx, method *models.EvaluationMethod, guard func(existing float64) error) error {
	scope := models.EvaluationScope{SubjectID: method.SubjectID, Year: method.Year, Semester: method.Semester, Grade: method.Grade}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, WeightLockKey(scope)); err != nil {
		return fmt.Errorf("lock evaluation weights: %w", err)
	}
	existing, err := sumWeights(ctx, tx, scope)
	if err != nil {
		return err
	}
	if guard != nil {
		if err := guard(existing); err != nil {
			return err
		}
	}
	return insertMethod(ctx, tx, method)
}

func insertMethod(ctx context.Context, exec sqlx.ExtContext, method *models.EvaluationMethod) error {
	if method.ID == "" {
		method.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if method.CreatedAt.IsZero() {
		method.CreatedAt = now
	}
	method.UpdatedAt = now
	const query = `INSERT INTO evaluation_methods (` + evaluationMethodColumns + `)
        VALUES (:id, :subject_id, :year, :semester, :grade, :exam_type, :title, :weight, :full_score, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, method); err != nil {
		return fmt.Errorf("create evaluation method: %w", err)
	}
	return nil
}

// FindByID returns a single evaluation method; sql.ErrNoRows when absent.
func (r *EvaluationMethodRepository) FindByID(ctx context.Context, id string) (*models.EvaluationMethod, error) {
	const query = `SELECT ` + evaluationMethodColumns + ` FROM evaluation_methods WHERE id = $1`
	var method models.EvaluationMethod
	if err := r.db.GetContext(ctx, &method, query, id); err != nil {
		return nil, err
	}
	return &method, nil
}

// FindByIDs returns the evaluation methods keyed by ID. Unknown IDs are omitted.
func (r *EvaluationMethodRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.EvaluationMethod, error) {
	result := make(map[string]models.EvaluationMethod, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT ` + evaluationMethodColumns + ` FROM evaluation_methods WHERE id = ANY($1)`
	var methods []models.EvaluationMethod
	if err := r.db.SelectContext(ctx, &methods, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find evaluation methods: %w", err)
	}
	for _, m := range methods {
		result[m.ID] = m
	}
	return result, nil
}

// ListByScope returns the methods of one subject for a term and grade level.
func (r *EvaluationMethodRepository) ListByScope(ctx context.Context, scope models.EvaluationScope) ([]models.EvaluationMethod, error) {
	const query = `SELECT ` + evaluationMethodColumns + ` FROM evaluation_methods
        WHERE subject_id = $1 AND year = $2 AND semester = $3 AND grade = $4
        ORDER BY created_at, id`
	var methods []models.EvaluationMethod
	if err := r.db.SelectContext(ctx, &methods, query, scope.SubjectID, scope.Year, scope.Semester, scope.Grade); err != nil {
		return nil, fmt.Errorf("list evaluation methods: %w", err)
	}
	return methods, nil
}

// ListSubjectIDs returns every subject with at least one method in the term and grade level.
func (r *EvaluationMethodRepository) ListSubjectIDs(ctx context.Context, year, semester, grade int) ([]string, error) {
	const query = `SELECT DISTINCT subject_id FROM evaluation_methods
        WHERE year = $1 AND semester = $2 AND grade = $3
        ORDER BY subject_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, year, semester, grade); err != nil {
		return nil, fmt.Errorf("list evaluated subjects: %w", err)
	}
	return ids, nil
}

// SumWeights totals the weights already configured for a scope.
func (r *EvaluationMethodRepository) SumWeights(ctx context.Context, scope models.EvaluationScope) (float64, error) {
	return sumWeights(ctx, r.db, scope)
}

func sumWeights(ctx context.Context, q sqlx.QueryerContext, scope models.EvaluationScope) (float64, error) {
	const query = `SELECT COALESCE(SUM(weight), 0) FROM evaluation_methods
        WHERE subject_id = $1 AND year = $2 AND semester = $3 AND grade = $4`
	var total float64
	if err := sqlx.GetContext(ctx, q, &total, query, scope.SubjectID, scope.Year, scope.Semester, scope.Grade); err != nil {
		return 0, fmt.Errorf("sum evaluation weights: %w", err)
	}
	return total, nil
}
