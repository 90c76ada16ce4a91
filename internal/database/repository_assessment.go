package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assessmentColumns = `id, user_id, title, teacher_name, subject, class_room, paper_images, questions, status, created_at, updated_at`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	a := &Assessment{}
	var teacherName, subject, classRoom *string
	err := row.Scan(
		&a.ID, &a.UserID, &a.Title, &teacherName, &subject, &classRoom,
		&a.PaperImages, &a.Questions, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if teacherName != nil {
		a.TeacherName = *teacherName
	}
	if subject != nil {
		a.Subject = *subject
	}
	if classRoom != nil {
		a.ClassRoom = *classRoom
	}
	return a, nil
}

// CreateAssessment inserts a new assessment
func (r *Repository) CreateAssessment(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `
		INSERT INTO assessments (id, user_id, title, teacher_name, subject, class_room, paper_images, questions, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.Pool.QueryRow(
		ctx, query,
		a.ID, a.UserID, a.Title, nullIfEmpty(a.TeacherName), nullIfEmpty(a.Subject),
		nullIfEmpty(a.ClassRoom), a.PaperImages, a.Questions, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// GetAssessmentByID retrieves an assessment by ID, or nil when not found
func (r *Repository) GetAssessmentByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`
	a, err := scanAssessment(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// UpdateAssessment updates mutable assessment fields
func (r *Repository) UpdateAssessment(ctx context.Context, a *Assessment) error {
	query := `
		UPDATE assessments
		SET title = $2, teacher_name = $3, subject = $4, class_room = $5, paper_images = $6, questions = $7, status = $8, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(
		ctx, query,
		a.ID, a.Title, nullIfEmpty(a.TeacherName), nullIfEmpty(a.Subject),
		nullIfEmpty(a.ClassRoom), a.PaperImages, a.Questions, a.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assessment %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// DeleteAssessment removes an assessment and cascades to its evaluations
func (r *Repository) DeleteAssessment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListAssessments retrieves assessments newest first. userID filters when
// non-nil, status when non-empty.
func (r *Repository) ListAssessments(ctx context.Context, userID *uuid.UUID, status string, limit, offset int) ([]*Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if userID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, *userID)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, status)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// CountAssessments returns the number of assessments
func (r *Repository) CountAssessments(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// CountAssessmentsForUser returns the number of assessments owned by a user
func (r *Repository) CountAssessmentsForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM assessments WHERE user_id = $1`
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}
