package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"checkerq-admin-api/config"
	"checkerq-admin-api/internal/auth"
	"checkerq-admin-api/internal/cache"
	"checkerq-admin-api/internal/database"
	"checkerq-admin-api/internal/events"
	"checkerq-admin-api/internal/license"
	"checkerq-admin-api/internal/vault"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimiter provides simple in-memory rate limiting per key
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	repo           *database.Repository
	eventBus       *events.EventBus
	config         config.ServerConfig
	authService    *auth.Service
	licenseService *license.Service
	vaultClient    *vault.Client
	cacheService   *cache.CacheService // Can be nil when Redis is disabled
	logger         zerolog.Logger
	rateLimiter    *RateLimiter
	wsHub          *WSHub
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	authService *auth.Service,
	licenseService *license.Service,
	vaultClient *vault.Client,
	cacheService *cache.CacheService, // Can be nil if redis is disabled
	logger zerolog.Logger,
) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOriginsList()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:         router,
		repo:           repo,
		eventBus:       eventBus,
		config:         cfg,
		authService:    authService,
		licenseService: licenseService,
		vaultClient:    vaultClient,
		cacheService:   cacheService,
		logger:         logger.With().Str("component", "api").Logger(),
		rateLimiter:    NewRateLimiter(60, time.Minute),
	}

	server.setupRoutes()

	// WebSocket hub mirrors every bus event to connected admin consoles
	server.wsHub = InitWebSocket(eventBus, server.logger)

	return server
}

// rateLimitMiddleware limits requests per client IP on sensitive endpoints
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		if !s.rateLimiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   auth.ErrRateLimited.Code,
				"message": auth.ErrRateLimited.Message,
			})
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/api/health", s.handleHealth)

	jwtManager := s.authService.JWTManager()

	// Auth routes (public, rate limited)
	authHandlers := auth.NewHandlers(s.authService)
	authGroup := s.router.Group("/api")
	authGroup.Use(s.rateLimitMiddleware())
	authHandlers.RegisterRoutes(authGroup)

	// Authenticated API routes
	api := s.router.Group("/api")
	api.Use(auth.Middleware(jwtManager))
	{
		// License endpoints for signed-in users
		api.POST("/licenses/activate", s.handleActivateLicense)
		api.GET("/licenses/validate", s.handleValidateMyLicense)

		// Assessments
		api.GET("/assessments", s.handleListAssessments)
		api.POST("/assessments", s.handleCreateAssessment)
		api.GET("/assessments/:id", s.handleGetAssessment)
		api.PUT("/assessments/:id", s.handleUpdateAssessment)
		api.DELETE("/assessments/:id", s.handleDeleteAssessment)

		// Evaluations
		api.GET("/evaluations", s.handleListEvaluations)
		api.POST("/evaluations", s.handleCreateEvaluation)
		api.GET("/evaluations/:id", s.handleGetEvaluation)
		api.PUT("/evaluations/:id/result", s.handleUpdateEvaluationResult)

		// Usage events from clients
		api.POST("/analytics/events", s.handleRecordEvent)

		// Own profile and client config bundle
		api.PUT("/users/me", s.handleUpdateMe)
		api.GET("/config/app", s.handleAppConfig)
	}

	// Admin endpoints (requires admin role)
	admin := s.router.Group("/api/admin")
	admin.Use(auth.Middleware(jwtManager), auth.RequireAdmin())
	{
		// User management
		admin.GET("/users", s.handleAdminListUsers)
		admin.GET("/users/:id", s.handleAdminGetUser)
		admin.PUT("/users/:id/status", s.handleAdminUpdateUserStatus)
		admin.PUT("/users/:id/role", s.handleAdminUpdateUserRole)

		// License management
		admin.POST("/licenses/generate", s.handleAdminGenerateLicenses)
		admin.GET("/licenses", s.handleAdminListLicenses)
		admin.GET("/licenses/:id", s.handleAdminGetLicense)
		admin.POST("/licenses/:id/revoke", s.handleAdminRevokeLicense)
		admin.POST("/licenses/validate", s.handleAdminValidateLicense)

		// Dashboard and analytics
		admin.GET("/dashboard/stats", s.handleAdminDashboardStats)
		admin.GET("/analytics/events", s.handleAdminListEvents)
		admin.GET("/analytics/user-growth", s.handleAdminUserGrowth)
		admin.GET("/analytics/evaluation-trend", s.handleAdminEvaluationTrend)

		// Audit trail
		admin.GET("/audit-logs", s.handleAdminListAuditLogs)

		// System config records
		admin.GET("/config", s.handleAdminListConfig)
		admin.GET("/config/:key", s.handleAdminGetConfig)
		admin.PUT("/config/:key", s.handleAdminUpdateConfig)

		// AI provider keys (Vault-backed)
		admin.GET("/ai-keys", s.handleAdminListAIKeys)
		admin.GET("/ai-keys/:provider", s.handleAdminGetAIKey)
		admin.PUT("/ai-keys/:provider", s.handleAdminPutAIKey)
		admin.DELETE("/ai-keys/:provider", s.handleAdminDeleteAIKey)
	}

	// Admin live event feed
	s.router.GET("/ws/admin", auth.Middleware(jwtManager), auth.RequireAdmin(), s.handleWebSocket)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.repo.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unhealthy",
		})
		return
	}

	resp := gin.H{
		"status":   "healthy",
		"database": "healthy",
		"time":     time.Now().Format(time.RFC3339),
	}
	if s.cacheService != nil {
		resp["cache"] = s.cacheService.GetStats()
	}
	if s.vaultClient != nil {
		resp["vault_enabled"] = s.vaultClient.IsEnabled()
	}
	c.JSON(http.StatusOK, resp)
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
