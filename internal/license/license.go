package license

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// KeyPrefix prefixes every issued license key
const KeyPrefix = "CKERQ"

// KeyPattern matches CKERQ-XXXXX-XXXXX-XXXXX-XXXXX with uppercase hex groups
var KeyPattern = regexp.MustCompile(`^CKERQ(-[A-F0-9]{5}){4}$`)

// License tiers
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// TierLimits describes what a license tier grants
type TierLimits struct {
	MaxAssessments *int
	MaxEvaluations *int
	Features       map[string]bool
}

func intPtr(v int) *int { return &v }

// tierLimits maps each tier to its quota and feature set. Enterprise
// quotas are nil, meaning unlimited.
var tierLimits = map[string]TierLimits{
	TierFree: {
		MaxAssessments: intPtr(5),
		MaxEvaluations: intPtr(50),
		Features: map[string]bool{
			"export_pdf":   false,
			"export_excel": false,
			"analytics":    false,
		},
	},
	TierPro: {
		MaxAssessments: intPtr(100),
		MaxEvaluations: intPtr(1000),
		Features: map[string]bool{
			"export_pdf":      true,
			"export_excel":    true,
			"analytics":       true,
			"bulk_operations": true,
		},
	},
	TierEnterprise: {
		Features: map[string]bool{
			"export_pdf":       true,
			"export_excel":     true,
			"analytics":        true,
			"bulk_operations":  true,
			"api_access":       true,
			"priority_support": true,
		},
	},
}

// LimitsForTier returns the quota and feature set for a tier
func LimitsForTier(tier string) (TierLimits, error) {
	limits, ok := tierLimits[tier]
	if !ok {
		return TierLimits{}, fmt.Errorf("unknown license tier: %s", tier)
	}
	return limits, nil
}

// ValidTier reports whether tier is a recognized tier name
func ValidTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}

// FeaturesJSON returns the tier's feature set as a JSON object
func (t TierLimits) FeaturesJSON() (json.RawMessage, error) {
	data, err := json.Marshal(t.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}
	return data, nil
}

// GenerateKey produces a new license key from crypto/rand
func GenerateKey() (string, error) {
	groups := make([]string, 0, 5)
	groups = append(groups, KeyPrefix)
	for i := 0; i < 4; i++ {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate license key: %w", err)
		}
		group := strings.ToUpper(hex.EncodeToString(buf))[:5]
		groups = append(groups, group)
	}
	return strings.Join(groups, "-"), nil
}

// NormalizeKey trims and uppercases a user-supplied key
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
