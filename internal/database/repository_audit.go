package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateAuditLog records an administrative action
func (r *Repository) CreateAuditLog(ctx context.Context, entry *AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO audit_logs (id, actor_id, action, resource_type, resource_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.Pool.QueryRow(
		ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.ResourceType,
		nullIfEmpty(entry.ResourceID), entry.Details, nullIfEmpty(entry.IPAddress),
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListAuditLogs retrieves audit entries newest first, optionally filtered
// by actor and resource type.
func (r *Repository) ListAuditLogs(ctx context.Context, actorID *uuid.UUID, resourceType string, limit, offset int) ([]*AuditLog, error) {
	query := `SELECT id, actor_id, action, resource_type, resource_id, details, ip_address, created_at FROM audit_logs WHERE 1=1`
	args := []interface{}{}
	argPos := 1
	if actorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", argPos)
		args = append(args, *actorID)
		argPos++
	}
	if resourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argPos)
		args = append(args, resourceType)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*AuditLog
	for rows.Next() {
		entry := &AuditLog{}
		var resourceID, ipAddress *string
		if err := rows.Scan(
			&entry.ID, &entry.ActorID, &entry.Action, &entry.ResourceType,
			&resourceID, &entry.Details, &ipAddress, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if resourceID != nil {
			entry.ResourceID = *resourceID
		}
		if ipAddress != nil {
			entry.IPAddress = *ipAddress
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
