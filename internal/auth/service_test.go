package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkerq-admin-api/internal/database"
)

// fakeUserStore is an in-memory UserStore for service tests
type fakeUserStore struct {
	users map[uuid.UUID]*database.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*database.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *database.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return errors.New("email exists")
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id uuid.UUID) (*database.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*database.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByGoogleID(_ context.Context, googleID string) (*database.User, error) {
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) UpdateUserProfile(_ context.Context, id uuid.UUID, googleID, name, photoURL string, deviceInfo json.RawMessage, lastLogin time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.GoogleID = &googleID
	u.Name = name
	u.PhotoURL = photoURL
	u.DeviceInfo = deviceInfo
	u.LastLogin = &lastLogin
	return nil
}

func (f *fakeUserStore) UpdateUserLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.LastLogin = &at
	return nil
}

// fakeVerifier returns a fixed identity or an error
type fakeVerifier struct {
	identity *GoogleIdentity
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*GoogleIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func newTestAuthService(store UserStore, verifier IdentityVerifier) *Service {
	jwtManager := NewJWTManager("test-secret-key-for-unit-tests", 15*time.Minute, 30*24*time.Hour)
	return NewService(store, jwtManager, verifier, nil, zerolog.Nop())
}

func TestLoginWithGoogleProvisionsUser(t *testing.T) {
	store := newFakeUserStore()
	verifier := &fakeVerifier{identity: &GoogleIdentity{
		Subject:  "google-sub-123",
		Email:    "new@example.com",
		Name:     "New User",
		PhotoURL: "https://example.com/photo.jpg",
	}}
	svc := newTestAuthService(store, verifier)

	resp, err := svc.LoginWithGoogle(context.Background(), "dummy-id-token", nil)
	if err != nil {
		t.Fatalf("LoginWithGoogle failed: %v", err)
	}
	if resp.User.Email != "new@example.com" {
		t.Errorf("user email = %q, want new@example.com", resp.User.Email)
	}
	if resp.User.Role != database.RoleUser {
		t.Errorf("provisioned role = %q, want user", resp.User.Role)
	}
	if resp.TokenPair.AccessToken == "" || resp.TokenPair.RefreshToken == "" {
		t.Error("token pair incomplete")
	}

	stored, _ := store.GetUserByGoogleID(context.Background(), "google-sub-123")
	if stored == nil {
		t.Fatal("user was not persisted")
	}
	if stored.Status != database.UserStatusActive {
		t.Errorf("provisioned status = %q, want active", stored.Status)
	}
}

func TestLoginWithGoogleRepeatedLoginKeepsOneAccount(t *testing.T) {
	store := newFakeUserStore()
	verifier := &fakeVerifier{identity: &GoogleIdentity{
		Subject: "google-sub-repeat",
		Email:   "repeat@example.com",
		Name:    "Repeat User",
	}}
	svc := newTestAuthService(store, verifier)

	first, err := svc.LoginWithGoogle(context.Background(), "dummy", nil)
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := svc.LoginWithGoogle(context.Background(), "dummy", nil)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if len(store.users) != 1 {
		t.Fatalf("store holds %d accounts after two logins, want 1", len(store.users))
	}
	if first.User.ID != second.User.ID {
		t.Errorf("logins resolved to different accounts: %s vs %s", first.User.ID, second.User.ID)
	}
}

func TestLoginWithGoogleBindsSeededAccountByEmail(t *testing.T) {
	store := newFakeUserStore()
	seeded := &database.User{
		ID:     uuid.New(),
		Email:  "admin@example.com",
		Role:   database.RoleAdmin,
		Status: database.UserStatusActive,
	}
	store.users[seeded.ID] = seeded

	verifier := &fakeVerifier{identity: &GoogleIdentity{
		Subject: "google-sub-admin",
		Email:   "admin@example.com",
		Name:    "Admin",
	}}
	svc := newTestAuthService(store, verifier)

	resp, err := svc.LoginWithGoogle(context.Background(), "dummy-id-token", nil)
	if err != nil {
		t.Fatalf("LoginWithGoogle failed: %v", err)
	}
	if resp.User.ID != seeded.ID.String() {
		t.Error("login created a second account instead of binding the seeded one")
	}
	if resp.User.Role != database.RoleAdmin {
		t.Errorf("role = %q, want admin preserved", resp.User.Role)
	}

	stored, _ := store.GetUserByID(context.Background(), seeded.ID)
	if stored.GoogleID == nil || *stored.GoogleID != "google-sub-admin" {
		t.Error("google binding was not stored")
	}
}

func TestLoginWithGoogleSuspendedAccount(t *testing.T) {
	store := newFakeUserStore()
	sub := "google-sub-suspended"
	suspended := &database.User{
		ID:       uuid.New(),
		Email:    "bad@example.com",
		GoogleID: &sub,
		Role:     database.RoleUser,
		Status:   database.UserStatusSuspended,
	}
	store.users[suspended.ID] = suspended

	verifier := &fakeVerifier{identity: &GoogleIdentity{Subject: sub, Email: "bad@example.com"}}
	svc := newTestAuthService(store, verifier)

	_, err := svc.LoginWithGoogle(context.Background(), "dummy-id-token", nil)
	if !errors.Is(err, ErrAccountSuspended) {
		t.Errorf("error = %v, want ErrAccountSuspended", err)
	}
}

func TestLoginWithGoogleBadToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore(), &fakeVerifier{err: ErrGoogleTokenInvalid})
	_, err := svc.LoginWithGoogle(context.Background(), "bad-token", nil)
	if !errors.Is(err, ErrGoogleTokenInvalid) {
		t.Errorf("error = %v, want ErrGoogleTokenInvalid", err)
	}
}

func TestLoginWithPassword(t *testing.T) {
	store := newFakeUserStore()
	if err := SeedAdminUser(context.Background(), store, "admin@example.com", "Str0ng-Admin-Pass", zerolog.Nop()); err != nil {
		t.Fatalf("SeedAdminUser failed: %v", err)
	}
	svc := newTestAuthService(store, &fakeVerifier{})

	resp, err := svc.LoginWithPassword(context.Background(), "admin@example.com", "Str0ng-Admin-Pass")
	if err != nil {
		t.Fatalf("LoginWithPassword failed: %v", err)
	}
	if resp.User.Role != database.RoleAdmin {
		t.Errorf("role = %q, want admin", resp.User.Role)
	}

	if _, err := svc.LoginWithPassword(context.Background(), "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginWithPassword(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordLoginRejectedForGoogleOnlyAccount(t *testing.T) {
	store := newFakeUserStore()
	sub := "google-sub-x"
	user := &database.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		GoogleID: &sub,
		Role:     database.RoleUser,
		Status:   database.UserStatusActive,
	}
	store.users[user.ID] = user
	svc := newTestAuthService(store, &fakeVerifier{})

	_, err := svc.LoginWithPassword(context.Background(), "user@example.com", "anything")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefresh(t *testing.T) {
	store := newFakeUserStore()
	verifier := &fakeVerifier{identity: &GoogleIdentity{Subject: "sub-1", Email: "user@example.com"}}
	svc := newTestAuthService(store, verifier)

	login, err := svc.LoginWithGoogle(context.Background(), "dummy", nil)
	if err != nil {
		t.Fatalf("LoginWithGoogle failed: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), login.TokenPair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("refreshed pair incomplete")
	}

	// An access token is not accepted by the refresh flow
	if _, err := svc.Refresh(context.Background(), login.TokenPair.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("Refresh(access token) error = %v, want ErrWrongTokenType", err)
	}
}

func TestRefreshSuspendedAccount(t *testing.T) {
	store := newFakeUserStore()
	verifier := &fakeVerifier{identity: &GoogleIdentity{Subject: "sub-2", Email: "soon-gone@example.com"}}
	svc := newTestAuthService(store, verifier)

	login, err := svc.LoginWithGoogle(context.Background(), "dummy", nil)
	if err != nil {
		t.Fatalf("LoginWithGoogle failed: %v", err)
	}

	for _, u := range store.users {
		u.Status = database.UserStatusSuspended
	}

	if _, err := svc.Refresh(context.Background(), login.TokenPair.RefreshToken); !errors.Is(err, ErrAccountSuspended) {
		t.Errorf("error = %v, want ErrAccountSuspended", err)
	}
}

func TestRefreshDeletedAccountRejectedAsInvalidToken(t *testing.T) {
	store := newFakeUserStore()
	verifier := &fakeVerifier{identity: &GoogleIdentity{Subject: "sub-3", Email: "gone@example.com"}}
	svc := newTestAuthService(store, verifier)

	login, err := svc.LoginWithGoogle(context.Background(), "dummy", nil)
	if err != nil {
		t.Fatalf("LoginWithGoogle failed: %v", err)
	}

	for id := range store.users {
		delete(store.users, id)
	}

	_, err = svc.Refresh(context.Background(), login.TokenPair.RefreshToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Error("refresh must not reveal whether the account exists")
	}
}

func TestSeedAdminUser(t *testing.T) {
	store := newFakeUserStore()

	// Unconfigured seed is a no-op
	if err := SeedAdminUser(context.Background(), store, "", "", zerolog.Nop()); err != nil {
		t.Fatalf("unconfigured seed returned error: %v", err)
	}
	if len(store.users) != 0 {
		t.Error("unconfigured seed created a user")
	}

	// Weak passwords are rejected
	if err := SeedAdminUser(context.Background(), store, "admin@example.com", "weak", zerolog.Nop()); err == nil {
		t.Error("expected error for weak admin password")
	}

	if err := SeedAdminUser(context.Background(), store, "admin@example.com", "Str0ng-Admin-Pass", zerolog.Nop()); err != nil {
		t.Fatalf("SeedAdminUser failed: %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("store holds %d users, want 1", len(store.users))
	}

	// Re-seeding the same email is a no-op
	if err := SeedAdminUser(context.Background(), store, "admin@example.com", "Str0ng-Admin-Pass", zerolog.Nop()); err != nil {
		t.Fatalf("repeat seed returned error: %v", err)
	}
	if len(store.users) != 1 {
		t.Error("repeat seed created a duplicate admin")
	}
}
