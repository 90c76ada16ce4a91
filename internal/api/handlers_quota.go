package api

import (
	"errors"
	"net/http"
	"time"

	"checkerq-admin-api/internal/database"
	"checkerq-admin-api/internal/license"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errQuotaExceeded = errors.New("license quota exceeded")

// startOfMonth returns midnight UTC on the first day of t's month. The
// evaluation ceiling resets on this boundary.
func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// quotaFor resolves the caller's effective tier limits. Users without an
// active license get the free tier.
func (s *Server) quotaFor(c *gin.Context, userID uuid.UUID) (maxAssessments, maxEvaluations *int, err error) {
	lic, err := s.licenseService.GetUserLicense(c.Request.Context(), userID)
	if err != nil {
		return nil, nil, err
	}
	if lic == nil || lic.Status != database.LicenseStatusActive {
		limits, err := license.LimitsForTier(license.TierFree)
		if err != nil {
			return nil, nil, err
		}
		return limits.MaxAssessments, limits.MaxEvaluations, nil
	}
	return lic.MaxAssessments, lic.MaxEvaluations, nil
}

// checkAssessmentQuota rejects creation when the caller's tier quota is
// spent. A nil quota means unlimited. Writes the error response itself.
func (s *Server) checkAssessmentQuota(c *gin.Context, userID uuid.UUID) error {
	maxAssessments, _, err := s.quotaFor(c, userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to resolve assessment quota")
		errorResponse(c, http.StatusInternalServerError, "failed to check quota")
		return err
	}
	if maxAssessments == nil {
		return nil
	}

	count, err := s.repo.CountAssessmentsForUser(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count assessments")
		errorResponse(c, http.StatusInternalServerError, "failed to check quota")
		return err
	}
	if count >= int64(*maxAssessments) {
		errorResponse(c, http.StatusForbidden, "assessment quota exceeded for your license tier")
		return errQuotaExceeded
	}
	return nil
}

// checkEvaluationQuota rejects creation when the caller has spent this
// month's evaluation quota. Assessments are a lifetime ceiling but
// evaluations reset each calendar month.
func (s *Server) checkEvaluationQuota(c *gin.Context, userID uuid.UUID) error {
	_, maxEvaluations, err := s.quotaFor(c, userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to resolve evaluation quota")
		errorResponse(c, http.StatusInternalServerError, "failed to check quota")
		return err
	}
	if maxEvaluations == nil {
		return nil
	}

	count, err := s.repo.CountEvaluationsForUser(c.Request.Context(), userID, startOfMonth(time.Now()))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count evaluations")
		errorResponse(c, http.StatusInternalServerError, "failed to check quota")
		return err
	}
	if count >= int64(*maxEvaluations) {
		errorResponse(c, http.StatusForbidden, "evaluation quota exceeded for your license tier")
		return errQuotaExceeded
	}
	return nil
}
