package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/store"
	"github.com/go-authgate/fedlink/internal/util"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// placeholderPasswordLength is the length of the random password given to
// federated-only accounts. Nobody knows it, so password sign-in is disabled.
const placeholderPasswordLength = 32

// ConfirmationForm carries the fields the user confirmed before an account
// is created or linked
type ConfirmationForm struct {
	FirstName string
	LastName  string
	Email     string
	Website   string
}

// Validate trims the form and requires first name, last name and email
func (f *ConfirmationForm) Validate() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = normalizeEmail(f.Email)
	f.Website = strings.TrimSpace(f.Website)

	if f.FirstName == "" || f.LastName == "" || f.Email == "" {
		return fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	return validateEmail(f.Email)
}

// NewConfirmationForm prefills the form from the provider profile
func NewConfirmationForm(identity *auth.FederatedIdentity) ConfirmationForm {
	return ConfirmationForm{
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Website:   identity.Website,
	}
}

// MergeService applies resolver decisions to the user store
type MergeService struct {
	store       core.UserStore
	userService *UserService
	metrics     core.Recorder
}

func NewMergeService(s core.UserStore, userService *UserService, m core.Recorder) *MergeService {
	return &MergeService{store: s, userService: userService, metrics: m}
}

// ApplyCreateNew creates an account whose only configured service is identity
func (m *MergeService) ApplyCreateNew(
	ctx context.Context,
	identity *auth.FederatedIdentity,
	form ConfirmationForm,
) (*models.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	hash, err := placeholderPasswordHash()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		Website:      form.Website,
		PasswordHash: hash,
		State:        models.UserStateEnabled,
		IsVerified:   true,
	}
	link := linkFromIdentity(identity)

	if err := m.store.CreateUserWithService(ctx, user, link); err != nil {
		m.metrics.RecordAccountMerge(string(identity.Provider), "create", false)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, m.createConflict(ctx, identity, err)
		}
		return nil, m.classify(err, "create_user_with_service")
	}

	m.metrics.RecordAccountMerge(string(identity.Provider), "create", true)
	log.Printf("[Confirm] Created account user=%s via %s", user.ID, identity.Provider)
	return user, nil
}

// ApplyUpdateExisting links identity to user, replacing only the service slot
// for identity.Provider. form is nil when no confirmation form was submitted,
// in which case the stored website is kept.
func (m *MergeService) ApplyUpdateExisting(
	ctx context.Context,
	user *models.User,
	identity *auth.FederatedIdentity,
	form *ConfirmationForm,
) (*models.User, error) {
	updated := *user
	updated.Services = append([]models.ServiceLink(nil), user.Services...)
	updated.State = models.UserStateEnabled
	updated.IsVerified = true
	if form != nil {
		updated.Website = strings.TrimSpace(form.Website)
	}

	link := linkFromIdentity(identity)
	if err := m.store.SaveUserWithService(ctx, &updated, link); err != nil {
		m.metrics.RecordAccountMerge(string(identity.Provider), "update", false)
		return nil, m.classify(err, "save_user_with_service")
	}

	if m.userService != nil {
		m.userService.InvalidateUserCache(ctx, updated.ID)
	}
	m.metrics.RecordAccountMerge(string(identity.Provider), "update", true)
	log.Printf("[Confirm] Linked %s to user=%s", identity.Provider, updated.ID)
	return &updated, nil
}

// createConflict tells a profile already linked elsewhere apart from an
// email already registered, since the user must react differently to each
func (m *MergeService) createConflict(
	ctx context.Context,
	identity *auth.FederatedIdentity,
	err error,
) error {
	owner, lookupErr := m.store.GetUserByServiceProfile(
		ctx, string(identity.Provider), identity.ProfileID,
	)
	if lookupErr == nil && owner != nil {
		return fmt.Errorf("%w: %v", ErrLinkConflict, err)
	}
	return fmt.Errorf("%w: %v", ErrEmailConflict, err)
}

// classify maps a store error to ErrPersistence, or to ErrLinkConflict when
// a unique index rejected the write. Updates never change the email, so the
// link is the only unique value they can collide on.
func (m *MergeService) classify(err error, operation string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrLinkConflict, err)
	}
	m.metrics.RecordDatabaseQueryError(operation)
	log.Printf("[Confirm] Store failure during %s: %v", operation, err)
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func linkFromIdentity(identity *auth.FederatedIdentity) *models.ServiceLink {
	return &models.ServiceLink{
		Provider:     string(identity.Provider),
		ProfileID:    identity.ProfileID,
		IsConfigured: true,
		Username:     identity.Username,
		AvatarURL:    identity.AvatarURL,
		AccessToken:  identity.AccessToken,
		RefreshToken: identity.RefreshToken,
	}
}

func placeholderPasswordHash() (string, error) {
	secret, err := util.CryptoRandomString(placeholderPasswordLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
