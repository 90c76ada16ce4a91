package license

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkerq-admin-api/internal/database"
	"checkerq-admin-api/internal/events"
)

// License lifecycle errors
var (
	ErrLicenseNotFound       = errors.New("license not found")
	ErrLicenseNotActivatable = errors.New("license is not activatable")
	ErrLicenseClaimed        = errors.New("license is claimed by another account")
	ErrUnknownTier           = errors.New("unknown license tier")
)

// Store is the persistence surface the service needs
type Store interface {
	CreateLicenseBatch(ctx context.Context, licenses []*database.License) error
	GetLicenseByKey(ctx context.Context, key string) (*database.License, error)
	GetLicenseByID(ctx context.Context, id uuid.UUID) (*database.License, error)
	ClaimLicense(ctx context.Context, key string, userID uuid.UUID, at time.Time) (*database.License, error)
	UpdateLicenseStatus(ctx context.Context, id uuid.UUID, status string) error
	RevokeLicense(ctx context.Context, id uuid.UUID, at time.Time) error
	GetActiveLicenseForUser(ctx context.Context, userID uuid.UUID) (*database.License, error)
	ListLicenses(ctx context.Context, status, tier string, limit, offset int) ([]*database.License, error)
}

// Service manages the license lifecycle
type Service struct {
	store    Store
	eventBus *events.EventBus
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a license service
func NewService(store Store, eventBus *events.EventBus, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		eventBus: eventBus,
		logger:   logger.With().Str("component", "license").Logger(),
		now:      time.Now,
	}
}

// BatchSpec describes a batch of licenses to issue. The tier table fills
// the quota and feature fields; explicit values win over the defaults.
type BatchSpec struct {
	Tier           string
	Count          int
	ExpiresAt      *time.Time
	MaxAssessments *int
	MaxEvaluations *int
	Features       map[string]bool
}

// IssueBatch generates Count licenses of the given tier and persists
// them in one transaction. A nil ExpiresAt means the licenses never
// expire.
func (s *Service) IssueBatch(ctx context.Context, spec BatchSpec) ([]*database.License, error) {
	if spec.Count < 1 {
		return nil, fmt.Errorf("batch count must be at least 1, got %d", spec.Count)
	}
	limits, err := LimitsForTier(spec.Tier)
	if err != nil {
		return nil, ErrUnknownTier
	}

	maxAssessments := limits.MaxAssessments
	if spec.MaxAssessments != nil {
		maxAssessments = spec.MaxAssessments
	}
	maxEvaluations := limits.MaxEvaluations
	if spec.MaxEvaluations != nil {
		maxEvaluations = spec.MaxEvaluations
	}
	featureSet := limits.Features
	if spec.Features != nil {
		featureSet = spec.Features
	}
	features, err := TierLimits{Features: featureSet}.FeaturesJSON()
	if err != nil {
		return nil, err
	}

	licenses := make([]*database.License, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		key, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, &database.License{
			ID:             uuid.New(),
			Key:            key,
			Tier:           spec.Tier,
			Status:         database.LicenseStatusActive,
			MaxAssessments: maxAssessments,
			MaxEvaluations: maxEvaluations,
			Features:       features,
			ExpiresAt:      spec.ExpiresAt,
		})
	}

	if err := s.store.CreateLicenseBatch(ctx, licenses); err != nil {
		return nil, err
	}

	s.logger.Info().Str("tier", spec.Tier).Int("count", spec.Count).Msg("Issued license batch")
	if s.eventBus != nil {
		s.eventBus.PublishLicenseIssued(spec.Tier, spec.Count)
	}
	return licenses, nil
}

// Activate binds a license key to a user. Re-activation by the current
// owner succeeds without changing the original activation time.
func (s *Service) Activate(ctx context.Context, key string, userID uuid.UUID) (*database.License, error) {
	key = NormalizeKey(key)
	if !KeyPattern.MatchString(key) {
		return nil, ErrLicenseNotFound
	}

	lic, err := s.store.ClaimLicense(ctx, key, userID, s.now())
	if err != nil {
		return nil, err
	}
	if lic != nil {
		s.logger.Info().Str("key", key).Str("user_id", userID.String()).Msg("License activated")
		if s.eventBus != nil {
			s.eventBus.PublishLicenseActivated(key, userID.String(), lic.Tier)
		}
		return lic, nil
	}

	// The claim did not apply. Look the license up to report why.
	existing, err := s.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	switch {
	case existing == nil:
		return nil, ErrLicenseNotFound
	case existing.Status != database.LicenseStatusActive:
		return nil, ErrLicenseNotActivatable
	default:
		return nil, ErrLicenseClaimed
	}
}

// Validate looks up a license and applies the lazy expiry transition: an
// active license past its expiry time is persisted as expired before it
// is returned. The caller decides validity from the returned status.
func (s *Service) Validate(ctx context.Context, key string) (*database.License, error) {
	key = NormalizeKey(key)
	lic, err := s.store.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return nil, ErrLicenseNotFound
	}
	return s.applyLazyExpiry(ctx, lic)
}

// GetUserLicense returns the user's current license after applying the
// lazy expiry transition, or nil when the user holds none. When a user
// has activated several licenses, the most recently activated one wins.
func (s *Service) GetUserLicense(ctx context.Context, userID uuid.UUID) (*database.License, error) {
	lic, err := s.store.GetActiveLicenseForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return nil, nil
	}
	return s.applyLazyExpiry(ctx, lic)
}

// Revoke transitions a license to revoked. Revocation applies from any
// state and is terminal.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*database.License, error) {
	lic, err := s.store.GetLicenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return nil, ErrLicenseNotFound
	}

	now := s.now()
	if err := s.store.RevokeLicense(ctx, id, now); err != nil {
		return nil, err
	}
	lic.Status = database.LicenseStatusRevoked
	lic.RevokedAt = &now

	s.logger.Info().Str("key", lic.Key).Str("actor_id", actorID.String()).Msg("License revoked")
	if s.eventBus != nil {
		s.eventBus.PublishLicenseRevoked(lic.Key, actorID.String())
	}
	return lic, nil
}

// Get retrieves a license by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*database.License, error) {
	lic, err := s.store.GetLicenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return nil, ErrLicenseNotFound
	}
	return lic, nil
}

// List retrieves licenses with optional status and tier filters
func (s *Service) List(ctx context.Context, status, tier string, limit, offset int) ([]*database.License, error) {
	return s.store.ListLicenses(ctx, status, tier, limit, offset)
}

func (s *Service) applyLazyExpiry(ctx context.Context, lic *database.License) (*database.License, error) {
	if lic.Status != database.LicenseStatusActive || !lic.IsExpired(s.now()) {
		return lic, nil
	}
	if err := s.store.UpdateLicenseStatus(ctx, lic.ID, database.LicenseStatusExpired); err != nil {
		return nil, err
	}
	lic.Status = database.LicenseStatusExpired
	s.logger.Info().Str("key", lic.Key).Msg("License expired")
	if s.eventBus != nil {
		s.eventBus.PublishLicenseExpired(lic.Key)
	}
	return lic, nil
}
