package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// License tiers
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// License statuses
const (
	LicenseStatusActive  = "active"
	LicenseStatusExpired = "expired"
	LicenseStatusRevoked = "revoked"
)

// License represents an issued license key
type License struct {
	ID             uuid.UUID       `json:"id"`
	Key            string          `json:"license_key"`
	Tier           string          `json:"tier"`
	Status         string          `json:"status"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	MaxAssessments *int            `json:"max_assessments,omitempty"`
	MaxEvaluations *int            `json:"max_evaluations,omitempty"`
	Features       json.RawMessage `json:"features,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	ActivatedAt    *time.Time      `json:"activated_at,omitempty"`
	RevokedAt      *time.Time      `json:"revoked_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsExpired reports whether the license has passed its expiry time.
// A nil ExpiresAt means the license never expires.
func (l *License) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
