package auth

import (
	"context"
	"strings"

	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// LocalProviderName is the auth source recorded for email and password sign-ins
const LocalProviderName = "local"

// LocalAuthProvider verifies email and password against the user store
type LocalAuthProvider struct {
	store core.UserStore
}

// NewLocalAuthProvider creates a new local authentication provider
func NewLocalAuthProvider(s core.UserStore) *LocalAuthProvider {
	return &LocalAuthProvider{store: s}
}

// Authenticate returns the user owning email when password matches its hash.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (p *LocalAuthProvider) Authenticate(
	ctx context.Context,
	email, password string,
) (*models.User, error) {
	user, err := p.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash),
		[]byte(password),
	); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Name returns provider name for logging
func (p *LocalAuthProvider) Name() string {
	return LocalProviderName
}
