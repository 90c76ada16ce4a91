package database

import (
	"context"
	"errors"
)

// ErrNotFound marks updates that matched no row. Callers distinguish it
// from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("record not found")

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// GetDB returns the underlying DB instance
func (r *Repository) GetDB() *DB {
	return r.db
}
