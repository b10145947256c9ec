package core

import (
	"context"

	"github.com/go-authgate/fedlink/internal/models"
)

// UserStore is the persistence contract for users and their service links.
// Lookups return store.ErrRecordNotFound when nothing matches and
// writes return store.ErrDuplicate on a unique-constraint violation.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByServiceProfile finds the user whose configured link matches
	// (provider, profileID).
	GetUserByServiceProfile(ctx context.Context, provider, profileID string) (*models.User, error)

	CreateUser(ctx context.Context, user *models.User) error
	// CreateUserWithService inserts the user and its single link atomically.
	CreateUserWithService(ctx context.Context, user *models.User, link *models.ServiceLink) error
	// SaveUserWithService updates the user row and upserts the link for
	// link.Provider atomically. Other links are not written.
	SaveUserWithService(ctx context.Context, user *models.User, link *models.ServiceLink) error

	Health(ctx context.Context) error
}
