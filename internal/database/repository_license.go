package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const licenseColumns = `id, license_key, tier, status, user_id, max_assessments, max_evaluations, features, expires_at, activated_at, revoked_at, created_at, updated_at`

func scanLicense(row pgx.Row) (*License, error) {
	lic := &License{}
	err := row.Scan(
		&lic.ID, &lic.Key, &lic.Tier, &lic.Status, &lic.UserID,
		&lic.MaxAssessments, &lic.MaxEvaluations, &lic.Features,
		&lic.ExpiresAt, &lic.ActivatedAt, &lic.RevokedAt,
		&lic.CreatedAt, &lic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lic, nil
}

// CreateLicenseBatch inserts a batch of licenses inside one transaction.
// Either every license is persisted or none are.
func (r *Repository) CreateLicenseBatch(ctx context.Context, licenses []*License) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO licenses (id, license_key, tier, status, max_assessments, max_evaluations, features, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	for _, lic := range licenses {
		if lic.ID == uuid.Nil {
			lic.ID = uuid.New()
		}
		err := tx.QueryRow(
			ctx, query,
			lic.ID, lic.Key, lic.Tier, lic.Status,
			lic.MaxAssessments, lic.MaxEvaluations, lic.Features, lic.ExpiresAt,
		).Scan(&lic.CreatedAt, &lic.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert license %s: %w", lic.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit license batch: %w", err)
	}
	return nil
}

// GetLicenseByKey retrieves a license by its key, or nil when not found
func (r *Repository) GetLicenseByKey(ctx context.Context, key string) (*License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE license_key = $1`
	lic, err := scanLicense(r.db.Pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	return lic, nil
}

// GetLicenseByID retrieves a license by ID, or nil when not found
func (r *Repository) GetLicenseByID(ctx context.Context, id uuid.UUID) (*License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE id = $1`
	lic, err := scanLicense(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	return lic, nil
}

// ClaimLicense binds a license to a user with a single compare-and-set
// update. The claim succeeds only while the license is active and either
// unowned or already owned by the same user, which makes re-activation by
// the owner idempotent and keeps concurrent claims from both winning.
// Returns the updated license, or nil when the claim did not apply.
func (r *Repository) ClaimLicense(ctx context.Context, key string, userID uuid.UUID, at time.Time) (*License, error) {
	query := `
		UPDATE licenses
		SET user_id = $2,
		    activated_at = COALESCE(activated_at, $3),
		    updated_at = NOW()
		WHERE license_key = $1
		  AND status = 'active'
		  AND (user_id IS NULL OR user_id = $2)
		RETURNING ` + licenseColumns
	lic, err := scanLicense(r.db.Pool.QueryRow(ctx, query, key, userID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim license: %w", err)
	}
	return lic, nil
}

// UpdateLicenseStatus transitions a license to the given status. The
// optional timestamp column for revocation is stamped by RevokeLicense.
func (r *Repository) UpdateLicenseStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE licenses SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update license status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("license %s not found", id)
	}
	return nil
}

// RevokeLicense marks a license revoked and records when
func (r *Repository) RevokeLicense(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Pool.Exec(
		ctx,
		`UPDATE licenses SET status = 'revoked', revoked_at = $2, updated_at = NOW() WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("license %s not found", id)
	}
	return nil
}

// GetActiveLicenseForUser returns the user's most recently activated
// active license, or nil when the user holds none.
func (r *Repository) GetActiveLicenseForUser(ctx context.Context, userID uuid.UUID) (*License, error) {
	query := `
		SELECT ` + licenseColumns + `
		FROM licenses
		WHERE user_id = $1 AND status = 'active'
		ORDER BY activated_at DESC NULLS LAST
		LIMIT 1
	`
	lic, err := scanLicense(r.db.Pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active license: %w", err)
	}
	return lic, nil
}

// ListLicenses retrieves licenses ordered by creation time, newest first.
// status and tier filter when non-empty.
func (r *Repository) ListLicenses(ctx context.Context, status, tier string, limit, offset int) ([]*License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, status)
		argPos++
	}
	if tier != "" {
		query += fmt.Sprintf(" AND tier = $%d", argPos)
		args = append(args, tier)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*License
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, lic)
	}
	return licenses, rows.Err()
}

// CountLicenses returns the number of licenses, optionally filtered by status
func (r *Repository) CountLicenses(ctx context.Context, status string) (int64, error) {
	var count int64
	var err error
	if status == "" {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM licenses`).Scan(&count)
	} else {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM licenses WHERE status = $1`, status).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count licenses: %w", err)
	}
	return count, nil
}
