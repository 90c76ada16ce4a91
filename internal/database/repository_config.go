package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetSystemConfig retrieves a config record by key, or nil when not set
func (r *Repository) GetSystemConfig(ctx context.Context, key string) (*SystemConfig, error) {
	query := `SELECT key, value, description, updated_by, updated_at FROM system_config WHERE key = $1`
	cfg := &SystemConfig{}
	var description *string
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(&cfg.Key, &cfg.Value, &description, &cfg.UpdatedBy, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get system config: %w", err)
	}
	if description != nil {
		cfg.Description = *description
	}
	return cfg, nil
}

// UpsertSystemConfig writes a config record, replacing any previous value
func (r *Repository) UpsertSystemConfig(ctx context.Context, key string, value json.RawMessage, description string, updatedBy *uuid.UUID) error {
	query := `
		INSERT INTO system_config (key, value, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, description = EXCLUDED.description, updated_by = EXCLUDED.updated_by, updated_at = NOW()
	`
	_, err := r.db.Pool.Exec(ctx, query, key, value, nullIfEmpty(description), updatedBy)
	if err != nil {
		return fmt.Errorf("failed to upsert system config: %w", err)
	}
	return nil
}

// ListSystemConfig retrieves all config records ordered by key
func (r *Repository) ListSystemConfig(ctx context.Context) ([]*SystemConfig, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT key, value, description, updated_by, updated_at FROM system_config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list system config: %w", err)
	}
	defer rows.Close()

	var configs []*SystemConfig
	for rows.Next() {
		cfg := &SystemConfig{}
		var description *string
		if err := rows.Scan(&cfg.Key, &cfg.Value, &description, &cfg.UpdatedBy, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan system config: %w", err)
		}
		if description != nil {
			cfg.Description = *description
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
