package api

import (
	"encoding/json"
	"net/http"

	"checkerq-admin-api/internal/auth"
	"checkerq-admin-api/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createEvaluationRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
	StudentName  string `json:"student_name"`
	StudentImage string `json:"student_image"`
	AIModel      string `json:"ai_model"`
}

type evaluationResultRequest struct {
	TotalMarks       *float64        `json:"total_marks" binding:"required"`
	ObtainedMarks    *float64        `json:"obtained_marks" binding:"required"`
	Results          json.RawMessage `json:"results"`
	OverallFeedback  string          `json:"overall_feedback"`
	AIModel          string          `json:"ai_model"`
	ProcessingTimeMS *int64          `json:"processing_time_ms"`
	Status           string          `json:"status"`
}

// handleListEvaluations lists the caller's evaluations, optionally
// scoped to one assessment
func (s *Server) handleListEvaluations(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	var assessmentID *uuid.UUID
	if raw := c.Query("assessment_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid assessment_id")
			return
		}
		assessmentID = &id
	}

	owner := &userID
	if auth.IsAdmin(c) && c.Query("all") == "true" {
		owner = nil
	}

	evaluations, err := s.repo.ListEvaluations(c.Request.Context(), assessmentID, owner, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list evaluations")
		errorResponse(c, http.StatusInternalServerError, "failed to list evaluations")
		return
	}

	successResponse(c, gin.H{
		"evaluations": evaluations,
		"limit":       limit,
		"offset":      offset,
	})
}

// handleCreateEvaluation records a pending AI evaluation run against one
// of the caller's assessments
func (s *Server) handleCreateEvaluation(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	var req createEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "assessment_id is required")
		return
	}
	assessmentID, err := uuid.Parse(req.AssessmentID)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid assessment_id")
		return
	}

	assessment, err := s.repo.GetAssessmentByID(c.Request.Context(), assessmentID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get assessment")
		errorResponse(c, http.StatusInternalServerError, "failed to get assessment")
		return
	}
	if assessment == nil {
		errorResponse(c, http.StatusNotFound, "assessment not found")
		return
	}
	if assessment.UserID != userID && !auth.IsAdmin(c) {
		errorResponse(c, http.StatusForbidden, "not your assessment")
		return
	}

	if err := s.checkEvaluationQuota(c, userID); err != nil {
		return
	}

	evaluation := &database.Evaluation{
		AssessmentID: assessmentID,
		UserID:       userID,
		StudentName:  req.StudentName,
		StudentImage: req.StudentImage,
		AIModel:      req.AIModel,
		Status:       database.EvaluationStatusPending,
	}
	if err := s.repo.CreateEvaluation(c.Request.Context(), evaluation); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create evaluation")
		errorResponse(c, http.StatusInternalServerError, "failed to create evaluation")
		return
	}

	s.eventBus.PublishEvaluationCreated(evaluation.ID.String(), assessmentID.String(), userID.String())
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    evaluation,
	})
}

func (s *Server) handleGetEvaluation(c *gin.Context) {
	evaluation, ok := s.loadOwnedEvaluation(c)
	if !ok {
		return
	}
	successResponse(c, evaluation)
}

// handleUpdateEvaluationResult records the outcome of an AI grading run
func (s *Server) handleUpdateEvaluationResult(c *gin.Context) {
	evaluation, ok := s.loadOwnedEvaluation(c)
	if !ok {
		return
	}

	var req evaluationResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "total_marks and obtained_marks are required")
		return
	}

	status := database.EvaluationStatusCompleted
	if req.Status != "" {
		if req.Status != database.EvaluationStatusCompleted && req.Status != database.EvaluationStatusFailed {
			errorResponse(c, http.StatusBadRequest, "status must be completed or failed")
			return
		}
		status = req.Status
	}

	evaluation.TotalMarks = req.TotalMarks
	evaluation.ObtainedMarks = req.ObtainedMarks
	evaluation.Results = req.Results
	evaluation.OverallFeedback = req.OverallFeedback
	evaluation.ProcessingTimeMS = req.ProcessingTimeMS
	if req.AIModel != "" {
		evaluation.AIModel = req.AIModel
	}
	evaluation.Status = status

	if err := s.repo.UpdateEvaluationResult(c.Request.Context(), evaluation); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update evaluation")
		errorResponse(c, http.StatusInternalServerError, "failed to update evaluation")
		return
	}
	successResponse(c, evaluation)
}

func (s *Server) loadOwnedEvaluation(c *gin.Context) (*database.Evaluation, bool) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil, false
	}

	evaluation, err := s.repo.GetEvaluationByID(c.Request.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get evaluation")
		errorResponse(c, http.StatusInternalServerError, "failed to get evaluation")
		return nil, false
	}
	if evaluation == nil {
		errorResponse(c, http.StatusNotFound, "evaluation not found")
		return nil, false
	}
	if evaluation.UserID.String() != s.currentUserID(c) && !auth.IsAdmin(c) {
		errorResponse(c, http.StatusForbidden, "not your evaluation")
		return nil, false
	}
	return evaluation, true
}
