package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkerq-admin-api/internal/database"
)

// SeedAdminUser provisions the bootstrap admin account from deployment
// configuration. It runs only when both email and password are set, so
// production environments that manage admins another way can leave them
// empty. Seeding an email that already exists is a no-op.
func SeedAdminUser(ctx context.Context, store UserStore, email, password string, logger zerolog.Logger) error {
	if email == "" || password == "" {
		logger.Debug().Msg("Admin seed not configured, skipping")
		return nil
	}

	passwords := NewPasswordManager(DefaultBcryptCost, MinPasswordLength)
	if err := passwords.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("admin seed password rejected: %w", err)
	}

	existing, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}
	if existing != nil {
		logger.Info().Str("email", email).Msg("Admin account already exists, skipping seed")
		return nil
	}

	hash, err := passwords.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &database.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         database.RoleAdmin,
		Status:       database.UserStatusActive,
		LastLogin:    &now,
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info().Str("email", email).Str("user_id", admin.ID.String()).Msg("Seeded admin account")
	return nil
}
