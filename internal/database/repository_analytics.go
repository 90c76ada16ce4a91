package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateAnalyticsEvent records a product usage event
func (r *Repository) CreateAnalyticsEvent(ctx context.Context, e *AnalyticsEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO analytics_events (id, user_id, event_type, event_data, device_info, app_version, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.Pool.QueryRow(
		ctx, query,
		e.ID, e.UserID, e.EventType, e.EventData,
		e.DeviceInfo, nullIfEmpty(e.AppVersion), nullIfEmpty(e.SessionID),
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create analytics event: %w", err)
	}
	return nil
}

// ListAnalyticsEvents retrieves events newest first, optionally filtered
// by event type and a time window.
func (r *Repository) ListAnalyticsEvents(ctx context.Context, eventType string, since time.Time, limit, offset int) ([]*AnalyticsEvent, error) {
	query := `SELECT id, user_id, event_type, event_data, device_info, app_version, session_id, created_at FROM analytics_events WHERE created_at >= $1`
	args := []interface{}{since}
	argPos := 2
	if eventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argPos)
		args = append(args, eventType)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", err)
	}
	defer rows.Close()

	var events []*AnalyticsEvent
	for rows.Next() {
		e := &AnalyticsEvent{}
		var appVersion, sessionID *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &e.EventData, &e.DeviceInfo, &appVersion, &sessionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analytics event: %w", err)
		}
		if appVersion != nil {
			e.AppVersion = *appVersion
		}
		if sessionID != nil {
			e.SessionID = *sessionID
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEventsByType aggregates event counts per type since the given time
func (r *Repository) CountEventsByType(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM analytics_events
		WHERE created_at >= $1
		GROUP BY event_type
	`
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = count
	}
	return counts, rows.Err()
}

// DailyCount is one day's worth of a counted metric
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// CountUsersByDay aggregates new signups per day since the given time
func (r *Repository) CountUsersByDay(ctx context.Context, since time.Time) ([]DailyCount, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, COUNT(*)
		FROM users
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`
	return r.queryDailyCounts(ctx, query, since)
}

// DailyEvaluationStat is one day's evaluation volume and average marks
type DailyEvaluationStat struct {
	Day      time.Time `json:"day"`
	Count    int64     `json:"count"`
	AvgMarks *float64  `json:"avg_marks,omitempty"`
}

// EvaluationTrend aggregates evaluation counts and average obtained marks per day
func (r *Repository) EvaluationTrend(ctx context.Context, since time.Time) ([]DailyEvaluationStat, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, COUNT(*), AVG(obtained_marks)
		FROM evaluations
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation trend: %w", err)
	}
	defer rows.Close()

	var stats []DailyEvaluationStat
	for rows.Next() {
		var s DailyEvaluationStat
		if err := rows.Scan(&s.Day, &s.Count, &s.AvgMarks); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation trend: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CountEvaluationsByModel aggregates evaluation counts per AI model
func (r *Repository) CountEvaluationsByModel(ctx context.Context, since time.Time) (map[string]int64, error) {
	query := `
		SELECT COALESCE(ai_model, 'unknown'), COUNT(*)
		FROM evaluations
		WHERE created_at >= $1
		GROUP BY 1
	`
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count evaluations by model: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var model string
		var count int64
		if err := rows.Scan(&model, &count); err != nil {
			return nil, fmt.Errorf("failed to scan model count: %w", err)
		}
		counts[model] = count
	}
	return counts, rows.Err()
}

func (r *Repository) queryDailyCounts(ctx context.Context, query string, since time.Time) ([]DailyCount, error) {
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
