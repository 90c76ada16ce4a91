package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, name, photo_url, google_id, password_hash, role, status, device_info, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var name, photoURL, passwordHash *string
	err := row.Scan(
		&user.ID, &user.Email, &name, &photoURL, &user.GoogleID, &passwordHash,
		&user.Role, &user.Status, &user.DeviceInfo, &user.LastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if name != nil {
		user.Name = *name
	}
	if photoURL != nil {
		user.PhotoURL = *photoURL
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	return user, nil
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, email, name, photo_url, google_id, password_hash, role, status, device_info, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.Pool.QueryRow(
		ctx, query,
		user.ID, user.Email, nullIfEmpty(user.Name), nullIfEmpty(user.PhotoURL),
		user.GoogleID, nullIfEmpty(user.PasswordHash), user.Role, user.Status,
		user.DeviceInfo, user.LastLogin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID, or nil when not found
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, or nil when not found
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByGoogleID retrieves a user by their federated Google subject, or nil when not found
func (r *Repository) GetUserByGoogleID(ctx context.Context, googleID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, googleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by google id: %w", err)
	}
	return user, nil
}

// UpdateUserProfile refreshes the identity fields captured at each sign-in
func (r *Repository) UpdateUserProfile(ctx context.Context, id uuid.UUID, googleID, name, photoURL string, deviceInfo json.RawMessage, lastLogin time.Time) error {
	query := `
		UPDATE users
		SET google_id = $2, name = $3, photo_url = $4, device_info = $5, last_login = $6, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, id, googleID, nullIfEmpty(name), nullIfEmpty(photoURL), deviceInfo, lastLogin)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpdateUserName lets an account change its own display name
func (r *Repository) UpdateUserName(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`, id, nullIfEmpty(name))
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateUserLastLogin stamps the last successful authentication time
func (r *Repository) UpdateUserLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateUserStatus changes an account status
func (r *Repository) UpdateUserStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateUserRole changes an account role
func (r *Repository) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListUsers retrieves users ordered by creation time, newest first.
// status and role filter when non-empty.
func (r *Repository) ListUsers(ctx context.Context, status, role string, limit, offset int) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, status)
		argPos++
	}
	if role != "" {
		query += fmt.Sprintf(" AND role = $%d", argPos)
		args = append(args, role)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers returns the number of accounts, optionally filtered by status
func (r *Repository) CountUsers(ctx context.Context, status string) (int64, error) {
	var count int64
	var err error
	if status == "" {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	} else {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE status = $1`, status).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
