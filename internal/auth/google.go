package auth

import (
	"context"
	"time"

	"google.golang.org/api/idtoken"
)

// allowed issuers for Google ID tokens
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// IdentityVerifier verifies a federated identity token
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// GoogleVerifier validates Google ID tokens against the configured OAuth client
type GoogleVerifier struct {
	clientID string
	timeout  time.Duration
}

// NewGoogleVerifier creates a Google ID token verifier
func NewGoogleVerifier(clientID string, timeout time.Duration) *GoogleVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleVerifier{clientID: clientID, timeout: timeout}
}

// Verify checks the token signature, audience and issuer and returns the
// identity it asserts.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, ErrGoogleTokenInvalid
	}
	if !googleIssuers[payload.Issuer] {
		return nil, ErrGoogleTokenInvalid
	}

	identity := &GoogleIdentity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		identity.PhotoURL = picture
	}
	if identity.Email == "" {
		return nil, ErrGoogleTokenInvalid
	}
	return identity, nil
}
