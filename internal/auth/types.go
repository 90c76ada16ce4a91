package auth

import (
	"encoding/json"
	"time"
)

// UserClaims represents the identity carried inside a token
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenPair represents an access and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token expiry in seconds
	TokenType    string `json:"token_type"` // Always "Bearer"
}

// GoogleLoginRequest carries a Google ID token obtained by the client
type GoogleLoginRequest struct {
	IDToken    string          `json:"id_token" binding:"required"`
	DeviceInfo json.RawMessage `json:"device_info,omitempty"`
}

// AdminLoginRequest represents an email/password sign-in
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse represents a successful sign-in response
type LoginResponse struct {
	User      UserResponse `json:"user"`
	TokenPair TokenPair    `json:"tokens"`
}

// UserResponse represents user data returned to the client
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	PhotoURL  string     `json:"photo_url,omitempty"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// GoogleIdentity is the verified identity extracted from a Google ID token
type GoogleIdentity struct {
	Subject  string
	Email    string
	Name     string
	PhotoURL string
}

// Error types for authentication
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e AuthError) Error() string {
	return e.Message
}

// Common authentication errors
var (
	ErrInvalidCredentials = AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	ErrUserNotFound       = AuthError{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrInvalidToken       = AuthError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrTokenExpired       = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrWrongTokenType     = AuthError{Code: "WRONG_TOKEN_TYPE", Message: "token is not valid for this operation"}
	ErrGoogleTokenInvalid = AuthError{Code: "GOOGLE_TOKEN_INVALID", Message: "google id token could not be verified"}
	ErrUnauthorized       = AuthError{Code: "UNAUTHORIZED", Message: "unauthorized access"}
	ErrForbidden          = AuthError{Code: "FORBIDDEN", Message: "access forbidden"}
	ErrAccountSuspended   = AuthError{Code: "ACCOUNT_SUSPENDED", Message: "account has been suspended"}
	ErrWeakPassword       = AuthError{Code: "WEAK_PASSWORD", Message: "password does not meet requirements"}
	ErrRateLimited        = AuthError{Code: "RATE_LIMITED", Message: "too many requests, please try again later"}
)
