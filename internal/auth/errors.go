package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Provider errors
	ErrUnknownProvider = errors.New("unknown OAuth provider")
	ErrProviderAuth    = errors.New("OAuth provider authentication failed")
)
