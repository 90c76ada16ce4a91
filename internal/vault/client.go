package vault

import (
	"context"
	"fmt"
	"sync"

	"checkerq-admin-api/config"

	"github.com/hashicorp/vault/api"
)

// ProviderKeyData represents an AI provider credential stored in Vault
type ProviderKeyData struct {
	Provider string `json:"provider"` // gemini, mistral
	APIKey   string `json:"api_key"`
	Model    string `json:"model,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// Client wraps the HashiCorp Vault client. When Vault is disabled the
// client degrades to an in-memory store for development and testing.
type Client struct {
	client       *api.Client
	config       config.VaultConfig
	mu           sync.RWMutex
	cache        map[string]*ProviderKeyData // provider -> key cache
	cacheEnabled bool
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config:       cfg,
			cache:        make(map[string]*ProviderKeyData),
			cacheEnabled: true,
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client:       client,
		config:       cfg,
		cache:        make(map[string]*ProviderKeyData),
		cacheEnabled: true,
	}, nil
}

// StoreProviderKey stores an AI provider credential in Vault
func (c *Client) StoreProviderKey(ctx context.Context, data ProviderKeyData) error {
	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[data.Provider] = &data
		c.mu.Unlock()
		return nil
	}

	path := c.secretPath(data.Provider)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"provider": data.Provider,
			"api_key":  data.APIKey,
			"model":    data.Model,
			"enabled":  data.Enabled,
		},
	}

	_, err := c.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		return fmt.Errorf("failed to store provider key in vault: %w", err)
	}

	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[data.Provider] = &data
		c.mu.Unlock()
	}

	return nil
}

// GetProviderKey retrieves an AI provider credential from Vault.
// Returns nil, nil when no key is stored for the provider.
func (c *Client) GetProviderKey(ctx context.Context, provider string) (*ProviderKeyData, error) {
	if c.cacheEnabled {
		c.mu.RLock()
		if cached, ok := c.cache[provider]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()
	}

	if !c.config.Enabled {
		return nil, nil
	}

	path := c.secretPath(provider)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider key from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	keyData := &ProviderKeyData{
		Provider: getString(data, "provider"),
		APIKey:   getString(data, "api_key"),
		Model:    getString(data, "model"),
		Enabled:  getBool(data, "enabled"),
	}

	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[provider] = keyData
		c.mu.Unlock()
	}

	return keyData, nil
}

// DeleteProviderKey removes an AI provider credential from Vault
func (c *Client) DeleteProviderKey(ctx context.Context, provider string) error {
	c.mu.Lock()
	delete(c.cache, provider)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	path := c.metadataPath(provider)

	_, err := c.client.Logical().DeleteWithContext(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to delete provider key from vault: %w", err)
	}

	return nil
}

// ListProviders lists the providers with stored credentials
func (c *Client) ListProviders(ctx context.Context) ([]string, error) {
	if !c.config.Enabled {
		c.mu.RLock()
		defer c.mu.RUnlock()

		providers := make([]string, 0, len(c.cache))
		for provider := range c.cache {
			providers = append(providers, provider)
		}
		return providers, nil
	}

	path := fmt.Sprintf("%s/metadata/%s", c.config.MountPath, c.config.SecretPath)

	secret, err := c.client.Logical().ListWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider keys: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	var providers []string
	for _, key := range keys {
		if keyStr, ok := key.(string); ok {
			providers = append(providers, keyStr)
		}
	}
	return providers, nil
}

// ClearCache clears the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*ProviderKeyData)
	c.mu.Unlock()
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	c.cacheEnabled = enabled
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().Health()
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// secretPath returns the path for storing a secret
func (c *Client) secretPath(provider string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, provider)
}

// metadataPath returns the metadata path for a secret
func (c *Client) metadataPath(provider string) string {
	return fmt.Sprintf("%s/metadata/%s/%s", c.config.MountPath, c.config.SecretPath, provider)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	if val, ok := data[key]; ok {
		switch v := val.(type) {
		case bool:
			return v
		case string:
			return v == "true"
		}
	}
	return false
}

// NewMockClient creates a disabled client for testing
func NewMockClient() *Client {
	return &Client{
		config: config.VaultConfig{
			Enabled: false,
		},
		cache:        make(map[string]*ProviderKeyData),
		cacheEnabled: true,
	}
}
