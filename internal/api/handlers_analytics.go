package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"checkerq-admin-api/internal/cache"
	"checkerq-admin-api/internal/database"

	"github.com/gin-gonic/gin"
)

type recordEventRequest struct {
	EventType  string          `json:"event_type" binding:"required"`
	EventData  json.RawMessage `json:"event_data"`
	DeviceInfo json.RawMessage `json:"device_info"`
	AppVersion string          `json:"app_version"`
	SessionID  string          `json:"session_id"`
}

// DashboardStats is the aggregate admin dashboard payload
type DashboardStats struct {
	TotalUsers       int64            `json:"total_users"`
	ActiveUsers      int64            `json:"active_users"`
	TotalLicenses    int64            `json:"total_licenses"`
	ActiveLicenses   int64            `json:"active_licenses"`
	TotalAssessments int64            `json:"total_assessments"`
	TotalEvaluations int64            `json:"total_evaluations"`
	EventCounts      map[string]int64 `json:"event_counts_7d"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// handleRecordEvent stores a product usage event reported by a client
func (s *Server) handleRecordEvent(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "event_type is required")
		return
	}

	event := &database.AnalyticsEvent{
		UserID:     &userID,
		EventType:  req.EventType,
		EventData:  req.EventData,
		DeviceInfo: req.DeviceInfo,
		AppVersion: req.AppVersion,
		SessionID:  req.SessionID,
	}
	if err := s.repo.CreateAnalyticsEvent(c.Request.Context(), event); err != nil {
		s.logger.Error().Err(err).Msg("Failed to record analytics event")
		errorResponse(c, http.StatusInternalServerError, "failed to record event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    event,
	})
}

// handleAdminDashboardStats returns aggregate counts for the admin
// dashboard. Results are cached briefly since the queries span every
// table.
func (s *Server) handleAdminDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	var stats DashboardStats
	if err := s.cacheService.GetJSON(ctx, cache.DashboardStatsKey(), &stats); err == nil {
		successResponse(c, stats)
		return
	}

	stats, err := s.collectDashboardStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to collect dashboard stats")
		errorResponse(c, http.StatusInternalServerError, "failed to collect stats")
		return
	}

	if err := s.cacheService.SetJSON(ctx, cache.DashboardStatsKey(), stats, cache.DefaultStatsTTL); err != nil {
		s.logger.Debug().Err(err).Msg("Dashboard stats cache write skipped")
	}
	successResponse(c, stats)
}

func (s *Server) collectDashboardStats(ctx context.Context) (DashboardStats, error) {
	stats := DashboardStats{GeneratedAt: time.Now().UTC()}

	var err error
	if stats.TotalUsers, err = s.repo.CountUsers(ctx, ""); err != nil {
		return stats, err
	}
	if stats.ActiveUsers, err = s.repo.CountUsers(ctx, database.UserStatusActive); err != nil {
		return stats, err
	}
	if stats.TotalLicenses, err = s.repo.CountLicenses(ctx, ""); err != nil {
		return stats, err
	}
	if stats.ActiveLicenses, err = s.repo.CountLicenses(ctx, database.LicenseStatusActive); err != nil {
		return stats, err
	}
	if stats.TotalAssessments, err = s.repo.CountAssessments(ctx); err != nil {
		return stats, err
	}
	if stats.TotalEvaluations, err = s.repo.CountEvaluations(ctx); err != nil {
		return stats, err
	}
	if stats.EventCounts, err = s.repo.CountEventsByType(ctx, time.Now().AddDate(0, 0, -7)); err != nil {
		return stats, err
	}
	return stats, nil
}

// handleAdminUserGrowth returns daily signup counts for the trend chart
func (s *Server) handleAdminUserGrowth(c *gin.Context) {
	since, ok := sinceParam(c, 30)
	if !ok {
		return
	}

	counts, err := s.repo.CountUsersByDay(c.Request.Context(), since)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query user growth")
		errorResponse(c, http.StatusInternalServerError, "failed to query user growth")
		return
	}
	successResponse(c, gin.H{"growth": counts, "since": since})
}

// handleAdminEvaluationTrend returns daily evaluation volume, average
// scores, and per-model totals
func (s *Server) handleAdminEvaluationTrend(c *gin.Context) {
	since, ok := sinceParam(c, 30)
	if !ok {
		return
	}

	trend, err := s.repo.EvaluationTrend(c.Request.Context(), since)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query evaluation trend")
		errorResponse(c, http.StatusInternalServerError, "failed to query evaluation trend")
		return
	}
	byModel, err := s.repo.CountEvaluationsByModel(c.Request.Context(), since)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query model counts")
		errorResponse(c, http.StatusInternalServerError, "failed to query evaluation trend")
		return
	}
	successResponse(c, gin.H{
		"trend":    trend,
		"by_model": byModel,
		"since":    since,
	})
}

// sinceParam reads an optional RFC3339 since query param, defaulting to
// defaultDays ago
func sinceParam(c *gin.Context, defaultDays int) (time.Time, bool) {
	since := time.Now().AddDate(0, 0, -defaultDays)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "since must be RFC3339")
			return time.Time{}, false
		}
		since = parsed
	}
	return since, true
}

// handleAdminListEvents lists recorded analytics events
func (s *Server) handleAdminListEvents(c *gin.Context) {
	limit, offset := pagination(c)
	eventType := c.Query("event_type")

	since, ok := sinceParam(c, 30)
	if !ok {
		return
	}

	events, err := s.repo.ListAnalyticsEvents(c.Request.Context(), eventType, since, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list analytics events")
		errorResponse(c, http.StatusInternalServerError, "failed to list events")
		return
	}

	successResponse(c, gin.H{
		"events": events,
		"since":  since,
		"limit":  limit,
		"offset": offset,
	})
}
