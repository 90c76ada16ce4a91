package api

import (
	"net/http"
	"strings"

	"checkerq-admin-api/internal/vault"

	"github.com/gin-gonic/gin"
)

var validAIProviders = map[string]bool{
	"gemini":  true,
	"mistral": true,
}

type putAIKeyRequest struct {
	APIKey  string `json:"api_key" binding:"required"`
	Model   string `json:"model"`
	Enabled *bool  `json:"enabled"`
}

// maskedAIKey is the response shape for key reads. The key material
// itself never leaves the server; only a masked suffix is returned.
type maskedAIKey struct {
	Provider  string `json:"provider"`
	KeySuffix string `json:"key_suffix"`
	Model     string `json:"model,omitempty"`
	Enabled   bool   `json:"enabled"`
}

func maskAIKey(data *vault.ProviderKeyData) maskedAIKey {
	suffix := data.APIKey
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return maskedAIKey{
		Provider:  data.Provider,
		KeySuffix: "****" + suffix,
		Model:     data.Model,
		Enabled:   data.Enabled,
	}
}

// handleAdminListAIKeys lists configured AI providers with masked keys
func (s *Server) handleAdminListAIKeys(c *gin.Context) {
	providers, err := s.vaultClient.ListProviders(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list AI providers")
		errorResponse(c, http.StatusInternalServerError, "failed to list providers")
		return
	}

	keys := make([]maskedAIKey, 0, len(providers))
	for _, provider := range providers {
		data, err := s.vaultClient.GetProviderKey(c.Request.Context(), provider)
		if err != nil || data == nil {
			continue
		}
		keys = append(keys, maskAIKey(data))
	}
	successResponse(c, gin.H{"keys": keys})
}

func (s *Server) handleAdminGetAIKey(c *gin.Context) {
	provider := strings.ToLower(c.Param("provider"))
	if !validAIProviders[provider] {
		errorResponse(c, http.StatusBadRequest, "provider must be one of: gemini, mistral")
		return
	}

	data, err := s.vaultClient.GetProviderKey(c.Request.Context(), provider)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", provider).Msg("Failed to get AI key")
		errorResponse(c, http.StatusInternalServerError, "failed to get key")
		return
	}
	if data == nil {
		errorResponse(c, http.StatusNotFound, "no key configured for provider")
		return
	}
	successResponse(c, maskAIKey(data))
}

// handleAdminPutAIKey stores or replaces a provider key in the secret
// store
func (s *Server) handleAdminPutAIKey(c *gin.Context) {
	provider := strings.ToLower(c.Param("provider"))
	if !validAIProviders[provider] {
		errorResponse(c, http.StatusBadRequest, "provider must be one of: gemini, mistral")
		return
	}

	var req putAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "api_key is required")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	data := vault.ProviderKeyData{
		Provider: provider,
		APIKey:   req.APIKey,
		Model:    req.Model,
		Enabled:  enabled,
	}
	if err := s.vaultClient.StoreProviderKey(c.Request.Context(), data); err != nil {
		s.logger.Error().Err(err).Str("provider", provider).Msg("Failed to store AI key")
		errorResponse(c, http.StatusInternalServerError, "failed to store key")
		return
	}

	s.audit(c, "ai_key.update", "ai_key", provider, gin.H{
		"model":   req.Model,
		"enabled": enabled,
	})
	successResponse(c, maskAIKey(&data))
}

func (s *Server) handleAdminDeleteAIKey(c *gin.Context) {
	provider := strings.ToLower(c.Param("provider"))
	if !validAIProviders[provider] {
		errorResponse(c, http.StatusBadRequest, "provider must be one of: gemini, mistral")
		return
	}

	if err := s.vaultClient.DeleteProviderKey(c.Request.Context(), provider); err != nil {
		s.logger.Error().Err(err).Str("provider", provider).Msg("Failed to delete AI key")
		errorResponse(c, http.StatusInternalServerError, "failed to delete key")
		return
	}

	s.audit(c, "ai_key.delete", "ai_key", provider, nil)
	successResponse(c, gin.H{"deleted": provider})
}
