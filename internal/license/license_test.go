package license

import (
	"testing"
)

func TestGenerateKeyFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey failed: %v", err)
		}
		if !KeyPattern.MatchString(key) {
			t.Errorf("generated key %q does not match key pattern", key)
		}
		if seen[key] {
			t.Errorf("generated duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestNormalizeKey(t *testing.T) {
	got := NormalizeKey("  ckerq-ab12f-00d3e-1a2b3-ffeed ")
	want := "CKERQ-AB12F-00D3E-1A2B3-FFEED"
	if got != want {
		t.Errorf("NormalizeKey = %q, want %q", got, want)
	}
}

func TestLimitsForTier(t *testing.T) {
	free, err := LimitsForTier("free")
	if err != nil {
		t.Fatalf("LimitsForTier(free) failed: %v", err)
	}
	if free.MaxAssessments == nil || *free.MaxAssessments != 5 {
		t.Errorf("free tier max assessments = %v, want 5", free.MaxAssessments)
	}
	if free.MaxEvaluations == nil || *free.MaxEvaluations != 50 {
		t.Errorf("free tier max evaluations = %v, want 50", free.MaxEvaluations)
	}
	if free.Features["export_pdf"] {
		t.Error("free tier should not have export_pdf")
	}

	pro, err := LimitsForTier("pro")
	if err != nil {
		t.Fatalf("LimitsForTier(pro) failed: %v", err)
	}
	if pro.MaxAssessments == nil || *pro.MaxAssessments != 100 {
		t.Errorf("pro tier max assessments = %v, want 100", pro.MaxAssessments)
	}
	if !pro.Features["bulk_operations"] {
		t.Error("pro tier should have bulk_operations")
	}

	ent, err := LimitsForTier("enterprise")
	if err != nil {
		t.Fatalf("LimitsForTier(enterprise) failed: %v", err)
	}
	if ent.MaxAssessments != nil || ent.MaxEvaluations != nil {
		t.Error("enterprise tier quotas should be unlimited")
	}
	if !ent.Features["api_access"] || !ent.Features["priority_support"] {
		t.Error("enterprise tier missing expected features")
	}

	if _, err := LimitsForTier("platinum"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestValidTier(t *testing.T) {
	for _, tier := range []string{"free", "pro", "enterprise"} {
		if !ValidTier(tier) {
			t.Errorf("ValidTier(%q) = false, want true", tier)
		}
	}
	if ValidTier("trial") {
		t.Error("ValidTier(trial) = true, want false")
	}
}
