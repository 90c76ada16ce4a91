package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkerq-admin-api/internal/database"
	"checkerq-admin-api/internal/events"
)

// UserStore is the persistence surface the service needs
type UserStore interface {
	CreateUser(ctx context.Context, user *database.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*database.User, error)
	GetUserByEmail(ctx context.Context, email string) (*database.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*database.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, googleID, name, photoURL string, deviceInfo json.RawMessage, lastLogin time.Time) error
	UpdateUserLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service handles authentication flows
type Service struct {
	store      UserStore
	jwtManager *JWTManager
	verifier   IdentityVerifier
	passwords  *PasswordManager
	eventBus   *events.EventBus
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates an authentication service
func NewService(store UserStore, jwtManager *JWTManager, verifier IdentityVerifier, eventBus *events.EventBus, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		jwtManager: jwtManager,
		verifier:   verifier,
		passwords:  NewPasswordManager(DefaultBcryptCost, MinPasswordLength),
		eventBus:   eventBus,
		logger:     logger.With().Str("component", "auth").Logger(),
		now:        time.Now,
	}
}

// JWTManager exposes the token manager for middleware wiring
func (s *Service) JWTManager() *JWTManager {
	return s.jwtManager
}

// LoginWithGoogle verifies a Google ID token, provisions or refreshes the
// matching account and issues a token pair.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string, deviceInfo json.RawMessage) (*LoginResponse, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.getOrCreateUser(ctx, identity, deviceInfo)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountSuspended
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsFor(user))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("Google sign-in")
	if s.eventBus != nil {
		s.eventBus.PublishUserLogin(user.ID.String(), user.Email, "google")
	}

	return &LoginResponse{User: userResponse(user), TokenPair: *pair}, nil
}

// LoginWithPassword signs in an account that holds a password hash. Only
// seeded admin accounts do.
func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !s.passwords.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountSuspended
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsFor(user))
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to stamp last login")
	}
	user.LastLogin = &now

	s.logger.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("Password sign-in")
	if s.eventBus != nil {
		s.eventBus.PublishUserLogin(user.ID.String(), user.Email, "password")
	}

	return &LoginResponse{User: userResponse(user), TokenPair: *pair}, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The
// account is re-checked so a suspended user cannot keep rotating tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// A vanished account is an auth failure; reporting not-found
		// would confirm which accounts exist.
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrAccountSuspended
	}

	return s.jwtManager.GenerateTokenPair(claimsFor(user))
}

// Logout records a sign-out. There is no token state to clear; both
// tokens stay valid until expiry.
func (s *Service) Logout(ctx context.Context, userIDStr string) {
	s.logger.Info().Str("user_id", userIDStr).Msg("Sign-out")
}

// GetUser loads the account behind a set of validated claims
func (s *Service) GetUser(ctx context.Context, userIDStr string) (*database.User, error) {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// getOrCreateUser resolves a verified Google identity to an account.
// Lookup order is federated subject first, then email, so an account
// seeded by email picks up its Google binding on first sign-in. Profile
// fields are refreshed on every sign-in.
func (s *Service) getOrCreateUser(ctx context.Context, identity *GoogleIdentity, deviceInfo json.RawMessage) (*database.User, error) {
	user, err := s.store.GetUserByGoogleID(ctx, identity.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.store.GetUserByEmail(ctx, identity.Email)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	if user == nil {
		user = &database.User{
			ID:         uuid.New(),
			Email:      identity.Email,
			Name:       identity.Name,
			PhotoURL:   identity.PhotoURL,
			GoogleID:   &identity.Subject,
			Role:       database.RoleUser,
			Status:     database.UserStatusActive,
			DeviceInfo: deviceInfo,
			LastLogin:  &now,
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("Provisioned new account")
		if s.eventBus != nil {
			s.eventBus.PublishUserCreated(user.ID.String(), user.Email)
		}
		return user, nil
	}

	if err := s.store.UpdateUserProfile(ctx, user.ID, identity.Subject, identity.Name, identity.PhotoURL, deviceInfo, now); err != nil {
		return nil, err
	}
	user.GoogleID = &identity.Subject
	user.Name = identity.Name
	user.PhotoURL = identity.PhotoURL
	user.DeviceInfo = deviceInfo
	user.LastLogin = &now
	return user, nil
}

func claimsFor(user *database.User) UserClaims {
	return UserClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
	}
}

func userResponse(user *database.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}
