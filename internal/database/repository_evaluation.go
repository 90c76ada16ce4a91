package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const evaluationColumns = `id, assessment_id, user_id, student_name, student_image, total_marks, obtained_marks, results, overall_feedback, ai_model, processing_time_ms, status, created_at, updated_at`

func scanEvaluation(row pgx.Row) (*Evaluation, error) {
	e := &Evaluation{}
	var studentName, studentImage, overallFeedback, aiModel *string
	err := row.Scan(
		&e.ID, &e.AssessmentID, &e.UserID, &studentName, &studentImage,
		&e.TotalMarks, &e.ObtainedMarks, &e.Results, &overallFeedback,
		&aiModel, &e.ProcessingTimeMS, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if studentName != nil {
		e.StudentName = *studentName
	}
	if studentImage != nil {
		e.StudentImage = *studentImage
	}
	if overallFeedback != nil {
		e.OverallFeedback = *overallFeedback
	}
	if aiModel != nil {
		e.AIModel = *aiModel
	}
	return e, nil
}

// CreateEvaluation inserts a new evaluation record
func (r *Repository) CreateEvaluation(ctx context.Context, e *Evaluation) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO evaluations (id, assessment_id, user_id, student_name, student_image, total_marks, obtained_marks, results, overall_feedback, ai_model, processing_time_ms, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.Pool.QueryRow(
		ctx, query,
		e.ID, e.AssessmentID, e.UserID, nullIfEmpty(e.StudentName), nullIfEmpty(e.StudentImage),
		e.TotalMarks, e.ObtainedMarks, e.Results, nullIfEmpty(e.OverallFeedback),
		nullIfEmpty(e.AIModel), e.ProcessingTimeMS, e.Status,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

// GetEvaluationByID retrieves an evaluation by ID, or nil when not found
func (r *Repository) GetEvaluationByID(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	e, err := scanEvaluation(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return e, nil
}

// UpdateEvaluationResult records the outcome of an AI grading run
func (r *Repository) UpdateEvaluationResult(ctx context.Context, e *Evaluation) error {
	query := `
		UPDATE evaluations
		SET total_marks = $2, obtained_marks = $3, results = $4, overall_feedback = $5, ai_model = $6, processing_time_ms = $7, status = $8, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(
		ctx, query,
		e.ID, e.TotalMarks, e.ObtainedMarks, e.Results, nullIfEmpty(e.OverallFeedback),
		nullIfEmpty(e.AIModel), e.ProcessingTimeMS, e.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("evaluation %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// ListEvaluations retrieves evaluations newest first. assessmentID and
// userID filter when non-nil.
func (r *Repository) ListEvaluations(ctx context.Context, assessmentID, userID *uuid.UUID, limit, offset int) ([]*Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if assessmentID != nil {
		query += fmt.Sprintf(" AND assessment_id = $%d", argPos)
		args = append(args, *assessmentID)
		argPos++
	}
	if userID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, *userID)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []*Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

// CountEvaluations returns the number of evaluations
func (r *Repository) CountEvaluations(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return count, nil
}

// CountEvaluationsForUser returns how many evaluations a user has
// recorded since the given time. A zero since counts everything.
func (r *Repository) CountEvaluationsForUser(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM evaluations WHERE user_id = $1 AND created_at >= $2`
	if err := r.db.Pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count evaluations for user: %w", err)
	}
	return count, nil
}
