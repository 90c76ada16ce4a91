package api

import (
	"errors"
	"net/http"

	"checkerq-admin-api/internal/auth"
	"checkerq-admin-api/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type updateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type updateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

var validUserStatuses = map[string]bool{
	database.UserStatusActive:    true,
	database.UserStatusSuspended: true,
	database.UserStatusDeleted:   true,
}

var validUserRoles = map[string]bool{
	database.RoleUser:       true,
	database.RoleAdmin:      true,
	database.RoleSuperAdmin: true,
}

// writeUserUpdateError maps a missed row to 404 and everything else to
// 500. Repositories signal the former with database.ErrNotFound.
func (s *Server) writeUserUpdateError(c *gin.Context, err error, message string) {
	if errors.Is(err, database.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, "user not found")
		return
	}
	s.logger.Error().Err(err).Msg(message)
	errorResponse(c, http.StatusInternalServerError, message)
}

// handleAdminListUsers lists users with optional status/role filters
func (s *Server) handleAdminListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	status := c.Query("status")
	role := c.Query("role")

	users, err := s.repo.ListUsers(c.Request.Context(), status, role, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		errorResponse(c, http.StatusInternalServerError, "failed to list users")
		return
	}

	total, err := s.repo.CountUsers(c.Request.Context(), status)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
	}

	successResponse(c, gin.H{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleAdminGetUser(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	user, err := s.repo.GetUserByID(c.Request.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get user")
		errorResponse(c, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		errorResponse(c, http.StatusNotFound, "user not found")
		return
	}

	lic, err := s.licenseService.GetUserLicense(c.Request.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load user license")
	}

	successResponse(c, gin.H{
		"user":    user,
		"license": lic,
	})
}

// handleAdminUpdateUserStatus suspends, reactivates, or soft-deletes a
// user. Suspended users are disconnected from live websocket sessions;
// their tokens fail at next use because the account check runs on every
// authenticated request that loads the user.
func (s *Server) handleAdminUpdateUserStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validUserStatuses[req.Status] {
		errorResponse(c, http.StatusBadRequest, "status must be one of: active, suspended, deleted")
		return
	}

	if id.String() == s.currentUserID(c) {
		errorResponse(c, http.StatusConflict, "cannot change your own status")
		return
	}

	if err := s.repo.UpdateUserStatus(c.Request.Context(), id, req.Status); err != nil {
		s.writeUserUpdateError(c, err, "failed to update user status")
		return
	}

	if req.Status != database.UserStatusActive && s.wsHub != nil {
		s.wsHub.DisconnectUser(id.String())
	}

	s.audit(c, "user.status_change", "user", id.String(), gin.H{
		"status": req.Status,
	})
	s.eventBus.PublishUserStatusChanged(id.String(), req.Status)
	successResponse(c, gin.H{
		"user_id": id.String(),
		"status":  req.Status,
	})
}

// handleAdminUpdateUserRole promotes or demotes a user
func (s *Server) handleAdminUpdateUserRole(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validUserRoles[req.Role] {
		errorResponse(c, http.StatusBadRequest, "role must be one of: user, admin, super_admin")
		return
	}

	if id.String() == s.currentUserID(c) {
		errorResponse(c, http.StatusConflict, "cannot change your own role")
		return
	}

	// Only super admins may grant the super_admin role.
	if req.Role == database.RoleSuperAdmin {
		claims := auth.GetUserClaims(c)
		if claims == nil || claims.Role != database.RoleSuperAdmin {
			errorResponse(c, http.StatusForbidden, "only super admins can grant super_admin")
			return
		}
	}

	if err := s.repo.UpdateUserRole(c.Request.Context(), id, req.Role); err != nil {
		s.writeUserUpdateError(c, err, "failed to update user role")
		return
	}

	s.audit(c, "user.role_change", "user", id.String(), gin.H{
		"role": req.Role,
	})
	successResponse(c, gin.H{
		"user_id": id.String(),
		"role":    req.Role,
	})
}

type updateMeRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// handleUpdateMe lets the caller change their own display name. Email
// and photo come from Google and refresh at sign-in.
func (s *Server) handleUpdateMe(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.repo.UpdateUserName(c.Request.Context(), userID, req.Name); err != nil {
		s.writeUserUpdateError(c, err, "failed to update profile")
		return
	}

	successResponse(c, gin.H{
		"user_id": userID.String(),
		"name":    req.Name,
	})
}

// handleAdminListAuditLogs lists recent audit log entries
func (s *Server) handleAdminListAuditLogs(c *gin.Context) {
	limit, offset := pagination(c)
	resourceType := c.Query("resource_type")

	var actorID *uuid.UUID
	if raw := c.Query("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid actor_id")
			return
		}
		actorID = &id
	}

	logs, err := s.repo.ListAuditLogs(c.Request.Context(), actorID, resourceType, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list audit logs")
		errorResponse(c, http.StatusInternalServerError, "failed to list audit logs")
		return
	}

	successResponse(c, gin.H{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}
