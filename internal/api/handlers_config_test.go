package api

import (
	"encoding/json"
	"testing"
)

func TestValidateConfigValueRejectsUnknownKey(t *testing.T) {
	err := validateConfigValue("not_a_real_key", json.RawMessage(`{}`))
	if err == nil {
		t.Error("expected error for unknown config key")
	}
}

func TestValidateConfigValueRejectsEmptyValue(t *testing.T) {
	err := validateConfigValue("feature_flags", nil)
	if err == nil {
		t.Error("expected error for empty value")
	}
}

func TestValidateConfigValueRejectsUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"ai_evaluation": true, "made_up_flag": true}`)
	if err := validateConfigValue("feature_flags", raw); err == nil {
		t.Error("expected error for unknown field in feature_flags")
	}
}

func TestValidateConfigValueGoogleOAuth(t *testing.T) {
	valid := json.RawMessage(`{"client_id": "abc.apps.googleusercontent.com", "allowed_domains": ["school.edu"]}`)
	if err := validateConfigValue("google_oauth", valid); err != nil {
		t.Errorf("expected valid google_oauth config, got %v", err)
	}

	missing := json.RawMessage(`{"allowed_domains": []}`)
	if err := validateConfigValue("google_oauth", missing); err == nil {
		t.Error("expected error for missing client_id")
	}
}

func TestValidateConfigValueEvaluationSettings(t *testing.T) {
	valid := json.RawMessage(`{"default_model": "gemini-1.5-pro", "max_retries": 3, "timeout_seconds": 120, "temperature": 0.2}`)
	if err := validateConfigValue("evaluation_settings", valid); err != nil {
		t.Errorf("expected valid evaluation_settings, got %v", err)
	}

	cases := []string{
		`{"max_retries": 3, "timeout_seconds": 120}`,                             // missing model
		`{"default_model": "gemini-1.5-pro", "max_retries": 99, "timeout_seconds": 120}`, // retries out of range
		`{"default_model": "gemini-1.5-pro", "max_retries": 3, "timeout_seconds": 0}`,    // timeout out of range
		`{"default_model": "gemini-1.5-pro", "max_retries": 3, "timeout_seconds": 120, "temperature": 5}`,
	}
	for i, raw := range cases {
		if err := validateConfigValue("evaluation_settings", json.RawMessage(raw)); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestValidateConfigValueUploadLimits(t *testing.T) {
	valid := json.RawMessage(`{"max_file_size_mb": 25, "max_files_per_batch": 50, "allowed_types": ["pdf", "docx"]}`)
	if err := validateConfigValue("upload_limits", valid); err != nil {
		t.Errorf("expected valid upload_limits, got %v", err)
	}

	tooBig := json.RawMessage(`{"max_file_size_mb": 9999, "max_files_per_batch": 50}`)
	if err := validateConfigValue("upload_limits", tooBig); err == nil {
		t.Error("expected error for oversized file limit")
	}
}

func TestValidateConfigValueAppSettings(t *testing.T) {
	valid := json.RawMessage(`{"app_name": "CheckerQ", "support_email": "support@checkerq.app"}`)
	if err := validateConfigValue("app_settings", valid); err != nil {
		t.Errorf("expected valid app_settings, got %v", err)
	}

	missing := json.RawMessage(`{"support_email": "support@checkerq.app"}`)
	if err := validateConfigValue("app_settings", missing); err == nil {
		t.Error("expected error for missing app_name")
	}
}
