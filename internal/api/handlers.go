package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"checkerq-admin-api/internal/auth"
	"checkerq-admin-api/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID returns the authenticated user's ID string
func (s *Server) currentUserID(c *gin.Context) string {
	return auth.GetUserID(c)
}

// currentUserUUID parses the authenticated user's ID. When parsing fails
// the request is aborted and ok is false.
func (s *Server) currentUserUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(auth.GetUserID(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   auth.ErrUnauthorized.Code,
			"message": auth.ErrUnauthorized.Message,
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDParam parses a :param path segment as a UUID
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit/offset query params with sane bounds
func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// audit records an admin action. Audit failures are logged, never
// surfaced to the caller.
func (s *Server) audit(c *gin.Context, action, resourceType, resourceID string, details interface{}) {
	var detailsJSON json.RawMessage
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			detailsJSON = data
		}
	}

	entry := &database.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      detailsJSON,
		IPAddress:    c.ClientIP(),
	}
	if actorID, err := uuid.Parse(s.currentUserID(c)); err == nil {
		entry.ActorID = &actorID
	}

	if err := s.repo.CreateAuditLog(c.Request.Context(), entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("Failed to write audit log")
	}
}
