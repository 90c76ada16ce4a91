package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// System config values are strongly typed. Each key maps to a schema
// struct; writes are rejected unless the payload unmarshals strictly
// into that struct and passes its checks. Unknown keys are rejected.

type googleOAuthConfig struct {
	ClientID       string   `json:"client_id"`
	AllowedDomains []string `json:"allowed_domains"`
}

type featureFlagsConfig struct {
	AIEvaluation      bool `json:"ai_evaluation"`
	BulkOperations    bool `json:"bulk_operations"`
	ExportPDF         bool `json:"export_pdf"`
	ExportExcel       bool `json:"export_excel"`
	MaintenanceMode   bool `json:"maintenance_mode"`
	NewUserOnboarding bool `json:"new_user_onboarding"`
}

type appSettingsConfig struct {
	AppName            string `json:"app_name"`
	SupportEmail       string `json:"support_email"`
	TermsURL           string `json:"terms_url"`
	PrivacyURL         string `json:"privacy_url"`
	MinClientVersion   string `json:"min_client_version"`
	AnnouncementBanner string `json:"announcement_banner"`
}

type evaluationSettingsConfig struct {
	DefaultModel     string  `json:"default_model"`
	MaxRetries       int     `json:"max_retries"`
	TimeoutSeconds   int     `json:"timeout_seconds"`
	Temperature      float64 `json:"temperature"`
	FallbackProvider string  `json:"fallback_provider"`
}

type uploadLimitsConfig struct {
	MaxFileSizeMB    int      `json:"max_file_size_mb"`
	MaxFilesPerBatch int      `json:"max_files_per_batch"`
	AllowedTypes     []string `json:"allowed_types"`
}

type configValidator func(raw json.RawMessage) error

func strictDecode(raw json.RawMessage, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

var configSchemas = map[string]configValidator{
	"google_oauth": func(raw json.RawMessage) error {
		var v googleOAuthConfig
		if err := strictDecode(raw, &v); err != nil {
			return err
		}
		if v.ClientID == "" {
			return fmt.Errorf("client_id is required")
		}
		return nil
	},
	"feature_flags": func(raw json.RawMessage) error {
		var v featureFlagsConfig
		return strictDecode(raw, &v)
	},
	"app_settings": func(raw json.RawMessage) error {
		var v appSettingsConfig
		if err := strictDecode(raw, &v); err != nil {
			return err
		}
		if v.AppName == "" {
			return fmt.Errorf("app_name is required")
		}
		return nil
	},
	"evaluation_settings": func(raw json.RawMessage) error {
		var v evaluationSettingsConfig
		if err := strictDecode(raw, &v); err != nil {
			return err
		}
		if v.DefaultModel == "" {
			return fmt.Errorf("default_model is required")
		}
		if v.MaxRetries < 0 || v.MaxRetries > 10 {
			return fmt.Errorf("max_retries must be between 0 and 10")
		}
		if v.TimeoutSeconds < 1 || v.TimeoutSeconds > 600 {
			return fmt.Errorf("timeout_seconds must be between 1 and 600")
		}
		if v.Temperature < 0 || v.Temperature > 2 {
			return fmt.Errorf("temperature must be between 0 and 2")
		}
		return nil
	},
	"upload_limits": func(raw json.RawMessage) error {
		var v uploadLimitsConfig
		if err := strictDecode(raw, &v); err != nil {
			return err
		}
		if v.MaxFileSizeMB < 1 || v.MaxFileSizeMB > 500 {
			return fmt.Errorf("max_file_size_mb must be between 1 and 500")
		}
		if v.MaxFilesPerBatch < 1 || v.MaxFilesPerBatch > 1000 {
			return fmt.Errorf("max_files_per_batch must be between 1 and 1000")
		}
		return nil
	},
}

// validateConfigValue checks a config payload against the schema for its
// key
func validateConfigValue(key string, value json.RawMessage) error {
	validator, ok := configSchemas[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if len(value) == 0 {
		return fmt.Errorf("value is required")
	}
	return validator(value)
}

type updateConfigRequest struct {
	Value       json.RawMessage `json:"value" binding:"required"`
	Description string          `json:"description"`
}

// appConfigKeys are the config records safe to hand to any signed-in
// client. google_oauth stays admin-only.
var appConfigKeys = []string{"feature_flags", "app_settings", "upload_limits"}

// handleAppConfig returns the client-facing config bundle
func (s *Server) handleAppConfig(c *gin.Context) {
	bundle := make(map[string]json.RawMessage, len(appConfigKeys))
	for _, key := range appConfigKeys {
		cfg, err := s.repo.GetSystemConfig(c.Request.Context(), key)
		if err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to load app config")
			errorResponse(c, http.StatusInternalServerError, "failed to load config")
			return
		}
		if cfg != nil {
			bundle[key] = cfg.Value
		}
	}
	successResponse(c, bundle)
}

func (s *Server) handleAdminListConfig(c *gin.Context) {
	configs, err := s.repo.ListSystemConfig(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list system config")
		errorResponse(c, http.StatusInternalServerError, "failed to list config")
		return
	}
	successResponse(c, gin.H{"configs": configs})
}

func (s *Server) handleAdminGetConfig(c *gin.Context) {
	key := c.Param("key")
	if _, ok := configSchemas[key]; !ok {
		errorResponse(c, http.StatusNotFound, "unknown config key")
		return
	}

	cfg, err := s.repo.GetSystemConfig(c.Request.Context(), key)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get system config")
		errorResponse(c, http.StatusInternalServerError, "failed to get config")
		return
	}
	if cfg == nil {
		errorResponse(c, http.StatusNotFound, "config not set")
		return
	}
	successResponse(c, cfg)
}

// handleAdminUpdateConfig creates or replaces a config record after
// schema validation
func (s *Server) handleAdminUpdateConfig(c *gin.Context) {
	key := c.Param("key")

	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "value is required")
		return
	}

	if err := validateConfigValue(key, req.Value); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid config value: %v", err))
		return
	}

	var updatedBy *uuid.UUID
	if actorID, err := uuid.Parse(s.currentUserID(c)); err == nil {
		updatedBy = &actorID
	}

	if err := s.repo.UpsertSystemConfig(c.Request.Context(), key, req.Value, req.Description, updatedBy); err != nil {
		s.logger.Error().Err(err).Msg("Failed to upsert system config")
		errorResponse(c, http.StatusInternalServerError, "failed to save config")
		return
	}

	s.audit(c, "config.update", "system_config", key, nil)
	s.eventBus.PublishConfigUpdated(key, s.currentUserID(c))
	successResponse(c, gin.H{"key": key})
}
