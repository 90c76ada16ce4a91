package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret-key-for-unit-tests", 15*time.Minute, 30*24*time.Hour)
}

func testClaims() UserClaims {
	return UserClaims{
		UserID: "11111111-2222-3333-4444-555555555555",
		Email:  "teacher@example.com",
		Role:   "user",
	}
}

func TestGenerateTokenPair(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair(testClaims())
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair has empty tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens should differ")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token type = %q, want Bearer", pair.TokenType)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expires_in = %d, want 900", pair.ExpiresIn)
	}
}

func TestValidateAccessToken(t *testing.T) {
	m := newTestManager()
	want := testClaims()

	pair, err := m.GenerateTokenPair(want)
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	got, err := m.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if got.UserID != want.UserID || got.Email != want.Email || got.Role != want.Role {
		t.Errorf("claims = %+v, want %+v", got, want)
	}
}

func TestTokenTypeEnforced(t *testing.T) {
	m := newTestManager()
	pair, err := m.GenerateTokenPair(testClaims())
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	// A refresh token must not authenticate API requests
	if _, err := m.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("ValidateAccessToken(refresh) error = %v, want ErrWrongTokenType", err)
	}

	// An access token must not drive the refresh flow
	if _, err := m.ValidateRefreshToken(pair.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("ValidateRefreshToken(access) error = %v, want ErrWrongTokenType", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := newTestManager()
	if _, err := m.ValidateAccessToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("a-different-secret-entirely", 15*time.Minute, time.Hour)

	pair, err := other.GenerateTokenPair(testClaims())
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}
	if _, err := m.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := m.GenerateTokenPair(testClaims())
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}

	// The 30-day refresh token from the same pair is still inside its window
	if _, err := m.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Errorf("refresh token should still validate, got %v", err)
	}
}
