package api

import (
	"strings"
	"testing"

	"checkerq-admin-api/internal/vault"
)

func TestMaskAIKeyHidesKeyMaterial(t *testing.T) {
	data := &vault.ProviderKeyData{
		Provider: "gemini",
		APIKey:   "AIzaabcdefghijklmnop1234",
		Model:    "gemini-1.5-pro",
		Enabled:  true,
	}

	masked := maskAIKey(data)
	if strings.Contains(masked.KeySuffix, "abcdefghijklmnop") {
		t.Error("masked key should not contain the key body")
	}
	if !strings.HasSuffix(masked.KeySuffix, "1234") {
		t.Errorf("expected suffix 1234, got %s", masked.KeySuffix)
	}
	if !strings.HasPrefix(masked.KeySuffix, "****") {
		t.Errorf("expected mask prefix, got %s", masked.KeySuffix)
	}
	if masked.Provider != "gemini" || masked.Model != "gemini-1.5-pro" || !masked.Enabled {
		t.Error("metadata should pass through unchanged")
	}
}

func TestMaskAIKeyShortKey(t *testing.T) {
	data := &vault.ProviderKeyData{Provider: "gemini", APIKey: "abc"}

	masked := maskAIKey(data)
	if masked.KeySuffix != "****abc" {
		t.Errorf("expected ****abc, got %s", masked.KeySuffix)
	}
}
