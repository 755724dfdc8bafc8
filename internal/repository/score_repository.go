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

const upsertScoreQuery = `INSERT INTO scores (id, student_id, evaluation_method_id, raw_score, weighted_score, created_at, updated_at)
        VALUES (:id, :student_id, :evaluation_method_id, :raw_score, :weighted_score, :created_at, :updated_at)
        ON CONFLICT (student_id, evaluation_method_id)
        DO UPDATE SET raw_score = EXCLUDED.raw_score, weighted_score = EXCLUDED.weighted_score, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`

type namedRowQueryer interface {
	BindNamed(query string, arg interface{}) (string, []interface{}, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// ScoreRepository handles raw score persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert inserts a score or updates the existing row for the same student and
// method. ID and CreatedAt are refreshed from the stored row.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	if err := upsertScore(ctx, r.db, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// BulkUpsert writes every score in one transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.Score) error {
	if len(scores) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scores tx: %w", err)
	}
	for i := range scores {
		if err := upsertScore(ctx, tx, &scores[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// FindByStudentsAndMethods returns scores for a cohort keyed by student ID.
func (r *ScoreRepository) FindByStudentsAndMethods(ctx context.Context, studentIDs, methodIDs []string) (map[string][]models.Score, error) {
	result := make(map[string][]models.Score, len(studentIDs))
	if len(studentIDs) == 0 || len(methodIDs) == 0 {
		return result, nil
	}
	const query = `SELECT id, student_id, evaluation_method_id, raw_score, weighted_score, created_at, updated_at
        FROM scores WHERE student_id = ANY($1) AND evaluation_method_id = ANY($2)`
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(studentIDs), pq.Array(methodIDs))
	if err != nil {
		return nil, fmt.Errorf("fetch cohort scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score models.Score
		if err := rows.StructScan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		result[score.StudentID] = append(result[score.StudentID], score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return result, nil
}

func upsertScore(ctx context.Context, q namedRowQueryer, score *models.Score) error {
	stamp(score)
	query, args, err := q.BindNamed(upsertScoreQuery, score)
	if err != nil {
		return err
	}
	return q.QueryRowxContext(ctx, query, args...).Scan(&score.ID, &score.CreatedAt)
}

func stamp(score *models.Score) {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
}
