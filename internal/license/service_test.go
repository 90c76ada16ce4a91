package license

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

// fakeStore is an in-memory Store for service tests
type fakeStore struct {
	licenses map[string]*database.License // keyed by license key
}

func newFakeStore() *fakeStore {
	return &fakeStore{licenses: make(map[string]*database.License)}
}

func (f *fakeStore) CreateLicenseBatch(_ context.Context, licenses []*database.License) error {
	for _, lic := range licenses {
		if _, exists := f.licenses[lic.Key]; exists {
			return errors.New("duplicate key")
		}
	}
	for _, lic := range licenses {
		cp := *lic
		f.licenses[lic.Key] = &cp
	}
	return nil
}

func (f *fakeStore) GetLicenseByKey(_ context.Context, key string) (*database.License, error) {
	lic, ok := f.licenses[key]
	if !ok {
		return nil, nil
	}
	cp := *lic
	return &cp, nil
}

func (f *fakeStore) GetLicenseByID(_ context.Context, id uuid.UUID) (*database.License, error) {
	for _, lic := range f.licenses {
		if lic.ID == id {
			cp := *lic
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ClaimLicense(_ context.Context, key string, userID uuid.UUID, at time.Time) (*database.License, error) {
	lic, ok := f.licenses[key]
	if !ok {
		return nil, nil
	}
	if lic.Status != database.LicenseStatusActive {
		return nil, nil
	}
	if lic.UserID != nil && *lic.UserID != userID {
		return nil, nil
	}
	lic.UserID = &userID
	if lic.ActivatedAt == nil {
		lic.ActivatedAt = &at
	}
	cp := *lic
	return &cp, nil
}

func (f *fakeStore) UpdateLicenseStatus(_ context.Context, id uuid.UUID, status string) error {
	for _, lic := range f.licenses {
		if lic.ID == id {
			lic.Status = status
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) RevokeLicense(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, lic := range f.licenses {
		if lic.ID == id {
			lic.Status = database.LicenseStatusRevoked
			lic.RevokedAt = &at
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) GetActiveLicenseForUser(_ context.Context, userID uuid.UUID) (*database.License, error) {
	var best *database.License
	for _, lic := range f.licenses {
		if lic.UserID == nil || *lic.UserID != userID || lic.Status != database.LicenseStatusActive {
			continue
		}
		if best == nil || (lic.ActivatedAt != nil && best.ActivatedAt != nil && lic.ActivatedAt.After(*best.ActivatedAt)) {
			best = lic
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) ListLicenses(_ context.Context, status, tier string, limit, offset int) ([]*database.License, error) {
	var out []*database.License
	for _, lic := range f.licenses {
		if status != "" && lic.Status != status {
			continue
		}
		if tier != "" && lic.Tier != tier {
			continue
		}
		cp := *lic
		out = append(out, &cp)
	}
	return out, nil
}

func newTestService(store Store) *Service {
	return NewService(store, nil, zerolog.Nop())
}

func TestIssueBatch(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	licenses, err := svc.IssueBatch(context.Background(), BatchSpec{Tier: "pro", Count: 3})
	if err != nil {
		t.Fatalf("IssueBatch failed: %v", err)
	}
	if len(licenses) != 3 {
		t.Fatalf("issued %d licenses, want 3", len(licenses))
	}

	seen := make(map[string]bool)
	for _, lic := range licenses {
		if !KeyPattern.MatchString(lic.Key) {
			t.Errorf("key %q does not match key pattern", lic.Key)
		}
		if seen[lic.Key] {
			t.Errorf("duplicate key in batch: %s", lic.Key)
		}
		seen[lic.Key] = true
		if lic.Status != database.LicenseStatusActive {
			t.Errorf("status = %q, want active", lic.Status)
		}
		if lic.UserID != nil {
			t.Error("freshly issued license should be unowned")
		}
		if lic.MaxAssessments == nil || *lic.MaxAssessments != 100 {
			t.Errorf("pro max assessments = %v, want 100", lic.MaxAssessments)
		}
		if lic.MaxEvaluations == nil || *lic.MaxEvaluations != 1000 {
			t.Errorf("pro max evaluations = %v, want 1000", lic.MaxEvaluations)
		}
	}
}

func TestIssueBatchOverridesWinOverTierDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	maxA, maxE := 7, 20
	licenses, err := svc.IssueBatch(context.Background(), BatchSpec{
		Tier:           "pro",
		Count:          1,
		MaxAssessments: &maxA,
		MaxEvaluations: &maxE,
		Features:       map[string]bool{"export_pdf": true, "beta_rubrics": true},
	})
	if err != nil {
		t.Fatalf("IssueBatch failed: %v", err)
	}

	lic := licenses[0]
	if lic.MaxAssessments == nil || *lic.MaxAssessments != 7 {
		t.Errorf("max assessments = %v, want override 7", lic.MaxAssessments)
	}
	if lic.MaxEvaluations == nil || *lic.MaxEvaluations != 20 {
		t.Errorf("max evaluations = %v, want override 20", lic.MaxEvaluations)
	}
	var features map[string]bool
	if err := json.Unmarshal(lic.Features, &features); err != nil {
		t.Fatalf("features did not unmarshal: %v", err)
	}
	if !features["beta_rubrics"] || len(features) != 2 {
		t.Errorf("features = %v, want the override set", features)
	}
}

func TestIssueBatchPartialOverrideKeepsTierDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	maxA := 3
	licenses, err := svc.IssueBatch(context.Background(), BatchSpec{
		Tier:           "pro",
		Count:          1,
		MaxAssessments: &maxA,
	})
	if err != nil {
		t.Fatalf("IssueBatch failed: %v", err)
	}

	lic := licenses[0]
	if lic.MaxAssessments == nil || *lic.MaxAssessments != 3 {
		t.Errorf("max assessments = %v, want override 3", lic.MaxAssessments)
	}
	if lic.MaxEvaluations == nil || *lic.MaxEvaluations != 1000 {
		t.Errorf("max evaluations = %v, want pro default 1000", lic.MaxEvaluations)
	}
}

func TestIssueBatchUnknownTier(t *testing.T) {
	svc := newTestService(newFakeStore())
	if _, err := svc.IssueBatch(context.Background(), BatchSpec{Tier: "platinum", Count: 1}); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("IssueBatch error = %v, want ErrUnknownTier", err)
	}
}

func TestIssueBatchRejectsZeroCount(t *testing.T) {
	svc := newTestService(newFakeStore())
	if _, err := svc.IssueBatch(context.Background(), BatchSpec{Tier: "free", Count: 0}); err == nil {
		t.Error("expected error for zero count")
	}
}

func TestActivate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	licenses, err := svc.IssueBatch(context.Background(), BatchSpec{Tier: "free", Count: 1})
	if err != nil {
		t.Fatalf("IssueBatch failed: %v", err)
	}
	key := licenses[0].Key
	userID := uuid.New()

	lic, err := svc.Activate(context.Background(), key, userID)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if lic.UserID == nil || *lic.UserID != userID {
		t.Error("license not bound to activating user")
	}
	if lic.ActivatedAt == nil {
		t.Error("activated_at not set")
	}
}

func TestActivateNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Activate(context.Background(), "CKERQ-AAAAA-BBBBB-CCCCC-DDDDD", uuid.New())
	if !errors.Is(err, ErrLicenseNotFound) {
		t.Errorf("Activate error = %v, want ErrLicenseNotFound", err)
	}
}

func TestActivateMalformedKey(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Activate(context.Background(), "not-a-key", uuid.New())
	if !errors.Is(err, ErrLicenseNotFound) {
		t.Errorf("Activate error = %v, want ErrLicenseNotFound", err)
	}
}

func TestActivateExclusive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	licenses, _ := svc.IssueBatch(context.Background(), BatchSpec{Tier: "pro", Count: 1})
	key := licenses[0].Key
	owner := uuid.New()

	if _, err := svc.Activate(context.Background(), key, owner); err != nil {
		t.Fatalf("first activation failed: %v", err)
	}
	_, err := svc.Activate(context.Background(), key, uuid.New())
	if !errors.Is(err, ErrLicenseClaimed) {
		t.Errorf("second user activation error = %v, want ErrLicenseClaimed", err)
	}
}

func TestActivateIdempotentForOwner(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	licenses, _ := svc.IssueBatch(context.Background(), BatchSpec{Tier: "pro", Count: 1})
	key := licenses[0].Key
	owner := uuid.New()

	first, err := svc.Activate(context.Background(), key, owner)
	if err != nil {
		t.Fatalf("first activation failed: %v", err)
	}
	second, err := svc.Activate(context.Background(), key, owner)
	if err != nil {
		t.Fatalf("repeat activation failed: %v", err)
	}
	if !second.ActivatedAt.Equal(*first.ActivatedAt) {
		t.Error("repeat activation changed the original activation time")
	}
}

func TestActivateRevokedLicense(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	licenses, _ := svc.IssueBatch(context.Background(), BatchSpec{Tier: "free", Count: 1})
	lic := licenses[0]

	if _, err := svc.Revoke(context.Background(), lic.ID, uuid.New()); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	_, err := svc.Activate(context.Background(), lic.Key, uuid.New())
	if !errors.Is(err, ErrLicenseNotActivatable) {
		t.Errorf("activation of revoked license error = %v, want ErrLicenseNotActivatable", err)
	}
}

func TestRevokeIsTerminal(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	licenses, _ := svc.IssueBatch(context.Background(), BatchSpec{Tier: "enterprise", Count: 1})
	lic := licenses[0]
	owner := uuid.New()
	if _, err := svc.Activate(context.Background(), lic.Key, owner); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	revoked, err := svc.Revoke(context.Background(), lic.ID, uuid.New())
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if revoked.Status != database.LicenseStatusRevoked {
		t.Errorf("status = %q, want revoked", revoked.Status)
	}
	if revoked.RevokedAt == nil {
		t.Error("revoked_at not set")
	}

	// A revoked license never validates back to active
	got, err := svc.Validate(context.Background(), lic.Key)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.Status != database.LicenseStatusRevoked {
		t.Errorf("validated status = %q, want revoked", got.Status)
	}
}

func TestValidateLazyExpiry(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	past := time.Now().Add(-time.Hour)
	licenses, err := svc.IssueBatch(context.Background(), BatchSpec{Tier: "free", Count: 1, ExpiresAt: &past})
	if err != nil {
		t.Fatalf("IssueBatch failed: %v", err)
	}
	key := licenses[0].Key

	got, err := svc.Validate(context.Background(), key)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.Status != database.LicenseStatusExpired {
		t.Errorf("status after validate = %q, want expired", got.Status)
	}

	// The transition is persisted
	if store.licenses[key].Status != database.LicenseStatusExpired {
		t.Error("expiry transition was not persisted")
	}

	// Re-validation is idempotent
	again, err := svc.Validate(context.Background(), key)
	if err != nil {
		t.Fatalf("second Validate failed: %v", err)
	}
	if again.Status != database.LicenseStatusExpired {
		t.Errorf("status after second validate = %q, want expired", again.Status)
	}
}

func TestValidateNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Validate(context.Background(), "CKERQ-AAAAA-BBBBB-CCCCC-DDDDD")
	if !errors.Is(err, ErrLicenseNotFound) {
		t.Errorf("Validate error = %v, want ErrLicenseNotFound", err)
	}
}

func TestGetUserLicense(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	userID := uuid.New()

	got, err := svc.GetUserLicense(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserLicense failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil license for user with none")
	}

	licenses, _ := svc.IssueBatch(context.Background(), BatchSpec{Tier: "pro", Count: 1})
	if _, err := svc.Activate(context.Background(), licenses[0].Key, userID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	got, err = svc.GetUserLicense(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserLicense failed: %v", err)
	}
	if got == nil || got.Key != licenses[0].Key {
		t.Errorf("GetUserLicense returned %v, want key %s", got, licenses[0].Key)
	}
}
