package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User account statuses
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusDeleted   = "deleted"
)

// User represents an account in the system
type User struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	GoogleID     *string         `json:"google_id,omitempty"`
	PasswordHash string          `json:"-"`
	Role         string          `json:"role"`
	Status       string          `json:"status"`
	DeviceInfo   json.RawMessage `json:"device_info,omitempty"`
	LastLogin    *time.Time      `json:"last_login,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsAdmin returns true for admin and super admin accounts
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// IsActive returns true if the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
