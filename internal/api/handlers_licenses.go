package api

import (
	"errors"
	"net/http"
	"time"

	"checkerq-admin-api/internal/license"

	"github.com/gin-gonic/gin"
)

type activateLicenseRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
}

type generateLicensesRequest struct {
	Tier           string          `json:"tier" binding:"required"`
	Count          int             `json:"count" binding:"required,min=1,max=1000"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	MaxAssessments *int            `json:"max_assessments"`
	MaxEvaluations *int            `json:"max_evaluations"`
	Features       map[string]bool `json:"features"`
}

type validateLicenseRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
}

// handleActivateLicense binds a license key to the calling user
func (s *Server) handleActivateLicense(c *gin.Context) {
	var req activateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "license_key is required")
		return
	}

	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	lic, err := s.licenseService.Activate(c.Request.Context(), req.LicenseKey, userID)
	if err != nil {
		s.writeLicenseError(c, err)
		return
	}

	s.cacheService.InvalidateUserLicense(c.Request.Context(), userID.String())
	successResponse(c, lic)
}

// handleValidateMyLicense returns the caller's current license, if any
func (s *Server) handleValidateMyLicense(c *gin.Context) {
	userID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	lic, err := s.licenseService.GetUserLicense(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load user license")
		errorResponse(c, http.StatusInternalServerError, "failed to load license")
		return
	}
	if lic == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"valid": false,
				"tier":  "free",
			},
		})
		return
	}

	successResponse(c, gin.H{
		"valid":   lic.Status == "active",
		"license": lic,
	})
}

// handleAdminGenerateLicenses issues a batch of fresh license keys
func (s *Server) handleAdminGenerateLicenses(c *gin.Context) {
	var req generateLicensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "tier and count (1-1000) are required")
		return
	}

	licenses, err := s.licenseService.IssueBatch(c.Request.Context(), license.BatchSpec{
		Tier:           req.Tier,
		Count:          req.Count,
		ExpiresAt:      req.ExpiresAt,
		MaxAssessments: req.MaxAssessments,
		MaxEvaluations: req.MaxEvaluations,
		Features:       req.Features,
	})
	if err != nil {
		s.writeLicenseError(c, err)
		return
	}

	s.audit(c, "license.generate", "license", "", gin.H{
		"tier":  req.Tier,
		"count": req.Count,
	})
	successResponse(c, gin.H{
		"count":    len(licenses),
		"licenses": licenses,
	})
}

// handleAdminListLicenses lists licenses with optional status/tier filters
func (s *Server) handleAdminListLicenses(c *gin.Context) {
	limit, offset := pagination(c)
	status := c.Query("status")
	tier := c.Query("tier")

	licenses, err := s.licenseService.List(c.Request.Context(), status, tier, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list licenses")
		errorResponse(c, http.StatusInternalServerError, "failed to list licenses")
		return
	}

	total, err := s.repo.CountLicenses(c.Request.Context(), status)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count licenses")
	}

	successResponse(c, gin.H{
		"licenses": licenses,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleAdminGetLicense(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	lic, err := s.licenseService.Get(c.Request.Context(), id)
	if err != nil {
		s.writeLicenseError(c, err)
		return
	}
	successResponse(c, lic)
}

// handleAdminRevokeLicense revokes a license from any state
func (s *Server) handleAdminRevokeLicense(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	actorID, ok := s.currentUserUUID(c)
	if !ok {
		return
	}

	lic, err := s.licenseService.Revoke(c.Request.Context(), id, actorID)
	if err != nil {
		s.writeLicenseError(c, err)
		return
	}

	if lic.UserID != nil {
		s.cacheService.InvalidateUserLicense(c.Request.Context(), lic.UserID.String())
	}
	s.audit(c, "license.revoke", "license", lic.ID.String(), gin.H{
		"license_key": lic.Key,
	})
	successResponse(c, lic)
}

// handleAdminValidateLicense checks a key's current state, applying
// lazy expiry if the license has passed its expiry date
func (s *Server) handleAdminValidateLicense(c *gin.Context) {
	var req validateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "license_key is required")
		return
	}

	lic, err := s.licenseService.Validate(c.Request.Context(), req.LicenseKey)
	if err != nil {
		s.writeLicenseError(c, err)
		return
	}

	successResponse(c, gin.H{
		"valid":   lic.Status == "active",
		"license": lic,
	})
}

func (s *Server) writeLicenseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, license.ErrLicenseNotFound):
		errorResponse(c, http.StatusNotFound, "license not found")
	case errors.Is(err, license.ErrLicenseClaimed):
		errorResponse(c, http.StatusConflict, "license is already activated by another user")
	case errors.Is(err, license.ErrLicenseNotActivatable):
		errorResponse(c, http.StatusConflict, "license is not active")
	case errors.Is(err, license.ErrUnknownTier):
		errorResponse(c, http.StatusBadRequest, "unknown license tier")
	default:
		s.logger.Error().Err(err).Msg("License operation failed")
		errorResponse(c, http.StatusInternalServerError, "license operation failed")
	}
}
