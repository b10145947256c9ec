package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user account is disabled")

	// ErrValidation marks user input that failed validation
	ErrValidation = errors.New("validation failed")

	ErrInvalidEmail = fmt.Errorf("%w: invalid email address", ErrValidation)

	// ErrConflict marks a write rejected by a uniqueness rule
	ErrConflict = errors.New("account conflict")

	// ErrEmailConflict is returned when an email belongs to another account
	// that is not linked to the federated identity being reconciled
	ErrEmailConflict = fmt.Errorf("%w: email address already registered", ErrConflict)

	// ErrLinkConflict is returned when the provider profile is already the
	// configured link of a different account
	ErrLinkConflict = fmt.Errorf("%w: provider profile linked to another account", ErrConflict)

	// ErrPersistence marks a failure of the user store itself
	ErrPersistence = errors.New("user store unavailable")
)
