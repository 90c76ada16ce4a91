package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers exposes authentication HTTP handlers
type Handlers struct {
	service *Service
}

// NewHandlers creates authentication handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers authentication routes
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/google", h.GoogleLogin)
		authGroup.POST("/login", h.AdminLogin)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", Middleware(h.service.jwtManager), h.Logout)
		authGroup.GET("/me", Middleware(h.service.jwtManager), h.Me)
	}
}

// GoogleLogin handles POST /auth/google
func (h *Handlers) GoogleLogin(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.service.LoginWithGoogle(c.Request.Context(), req.IDToken, req.DeviceInfo)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdminLogin handles POST /auth/login
func (h *Handlers) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.service.LoginWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
func (h *Handlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /auth/logout. Tokens are stateless, so there is
// nothing to invalidate server-side; clients discard their pair. The
// endpoint exists so sign-out shows up in the activity log.
func (h *Handlers) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	authErr, ok := err.(AuthError)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_ERROR",
			"message": "internal server error",
		})
		return
	}

	status := http.StatusUnauthorized
	switch authErr.Code {
	case ErrForbidden.Code, ErrAccountSuspended.Code:
		status = http.StatusForbidden
	case ErrUserNotFound.Code:
		status = http.StatusNotFound
	case ErrRateLimited.Code:
		status = http.StatusTooManyRequests
	}
	c.JSON(status, gin.H{
		"error":   authErr.Code,
		"message": authErr.Message,
	})
}
