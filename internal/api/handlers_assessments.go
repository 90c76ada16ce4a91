package api

import (
	"encoding/json"
	"net/http"

	"checkerq-admin-api/internal/auth"
	"checkerq-admin-api/internal/database"

	"github.com/gin-gonic/gin"
)

type createAssessmentRequest struct {
	Title       string          `json:"title" binding:"required"`
	TeacherName string          `json:"teacher_name"`
	Subject     string          `json:"subject"`
	ClassRoom   string          `json:"class_room"`
	PaperImages json.RawMessage `json:"paper_images"`
	Questions   json.RawMessage `json:"questions"`
}

type updateAssessmentRequest struct {
	Title       string          `json:"title" binding:"required"`
	TeacherName string          `json:"teacher_name"`
	Subject     string          `json:"subject"`
	ClassRoom   string          `json:"class_room"`
	Status      string          `json:"status"`
	PaperImages json.RawMessage `json:"paper_images"`
	Questions   json.RawMessage `json:"questions"`
}

var validAssessmentStatuses = map[string]bool{
	database.AssessmentStatusDraft:    true,
	database.AssessmentStatusActive:   true,
	database.AssessmentStatusArchived: true,
}

// handleListAssessments lists the caller's assessments. Admins can see
// everyone's by passing all=true.
func (s *Server) handleListAssessments(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	status := c.Query("status")

	owner := &userID
	if auth.IsAdmin(c) && c.Query("all") == "true" {
		owner = nil
	}

	assessments, err := s.repo.ListAssessments(c.Request.Context(), owner, status, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list assessments")
		errorResponse(c, http.StatusInternalServerError, "failed to list assessments")
		return
	}

	successResponse(c, gin.H{
		"assessments": assessments,
		"limit":       limit,
		"offset":      offset,
	})
}

// handleCreateAssessment creates a draft assessment owned by the caller
func (s *Server) handleCreateAssessment(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	var req createAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "title is required")
		return
	}

	if err := s.checkAssessmentQuota(c, userID); err != nil {
		return
	}

	assessment := &database.Assessment{
		UserID:      userID,
		Title:       req.Title,
		TeacherName: req.TeacherName,
		Subject:     req.Subject,
		ClassRoom:   req.ClassRoom,
		PaperImages: req.PaperImages,
		Questions:   req.Questions,
		Status:      database.AssessmentStatusDraft,
	}
	if err := s.repo.CreateAssessment(c.Request.Context(), assessment); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create assessment")
		errorResponse(c, http.StatusInternalServerError, "failed to create assessment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    assessment,
	})
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	assessment, ok := s.loadOwnedAssessment(c)
	if !ok {
		return
	}
	successResponse(c, assessment)
}

func (s *Server) handleUpdateAssessment(c *gin.Context) {
	assessment, ok := s.loadOwnedAssessment(c)
	if !ok {
		return
	}

	var req updateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status != "" && !validAssessmentStatuses[req.Status] {
		errorResponse(c, http.StatusBadRequest, "status must be one of: draft, active, archived")
		return
	}

	assessment.Title = req.Title
	assessment.TeacherName = req.TeacherName
	assessment.Subject = req.Subject
	assessment.ClassRoom = req.ClassRoom
	if req.Status != "" {
		assessment.Status = req.Status
	}
	if req.PaperImages != nil {
		assessment.PaperImages = req.PaperImages
	}
	if req.Questions != nil {
		assessment.Questions = req.Questions
	}

	if err := s.repo.UpdateAssessment(c.Request.Context(), assessment); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update assessment")
		errorResponse(c, http.StatusInternalServerError, "failed to update assessment")
		return
	}
	successResponse(c, assessment)
}

// handleDeleteAssessment deletes an assessment and, via cascade, its
// evaluations
func (s *Server) handleDeleteAssessment(c *gin.Context) {
	assessment, ok := s.loadOwnedAssessment(c)
	if !ok {
		return
	}

	if err := s.repo.DeleteAssessment(c.Request.Context(), assessment.ID); err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete assessment")
		errorResponse(c, http.StatusInternalServerError, "failed to delete assessment")
		return
	}
	successResponse(c, gin.H{"deleted": assessment.ID.String()})
}

// loadOwnedAssessment fetches the :id assessment and enforces ownership.
// Admins may access any assessment.
func (s *Server) loadOwnedAssessment(c *gin.Context) (*database.Assessment, bool) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil, false
	}

	assessment, err := s.repo.GetAssessmentByID(c.Request.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get assessment")
		errorResponse(c, http.StatusInternalServerError, "failed to get assessment")
		return nil, false
	}
	if assessment == nil {
		errorResponse(c, http.StatusNotFound, "assessment not found")
		return nil, false
	}
	if assessment.UserID.String() != s.currentUserID(c) && !auth.IsAdmin(c) {
		errorResponse(c, http.StatusForbidden, "not your assessment")
		return nil, false
	}
	return assessment, true
}
