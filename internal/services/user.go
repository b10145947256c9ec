package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const userCacheKeyPrefix = "user:"

// Registration is the local sign-up form
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type UserService struct {
	store         core.UserStore
	localProvider *auth.LocalAuthProvider
	userCache     core.Cache[models.User]
	userCacheTTL  time.Duration
	metrics       core.Recorder
}

func NewUserService(
	s core.UserStore,
	localProvider *auth.LocalAuthProvider,
	userCache core.Cache[models.User],
	userCacheTTL time.Duration,
	m core.Recorder,
) *UserService {
	return &UserService{
		store:         s,
		localProvider: localProvider,
		userCache:     userCache,
		userCacheTTL:  userCacheTTL,
		metrics:       m,
	}
}

// Authenticate verifies a local email/password sign-in
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	start := time.Now()

	user, err := s.localProvider.Authenticate(ctx, email, password)
	if err != nil {
		s.metrics.RecordAuthAttempt(s.localProvider.Name(), false, time.Since(start))
		return nil, ErrInvalidCredentials
	}
	s.metrics.RecordAuthAttempt(s.localProvider.Name(), true, time.Since(start))

	if !user.IsEnabled() {
		log.Printf("[Auth] Disabled account tried to sign in: user=%s", user.ID)
		return nil, ErrUserDisabled
	}
	return user, nil
}

// Register creates a local account from the join form
func (s *UserService) Register(ctx context.Context, form Registration) (*models.User, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = normalizeEmail(form.Email)

	if form.FirstName == "" || form.LastName == "" || form.Email == "" || form.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if err := validateEmail(form.Email); err != nil {
		return nil, err
	}

	_, err := s.store.GetUserByEmail(ctx, form.Email)
	switch {
	case err == nil:
		s.metrics.RecordRegistration(false)
		return nil, ErrEmailConflict
	case !errors.Is(err, store.ErrRecordNotFound):
		s.metrics.RecordDatabaseQueryError("get_user_by_email")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: string(hash),
		State:        models.UserStateEnabled,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		s.metrics.RecordRegistration(false)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailConflict
		}
		s.metrics.RecordDatabaseQueryError("create_user")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.metrics.RecordRegistration(true)
	log.Printf("[Auth] New local account: user=%s", user.ID)
	return user, nil
}

// GetUserByID returns a user with its service links, served from the user cache
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userCache.GetWithFetch(
		ctx,
		userCacheKeyPrefix+id,
		s.userCacheTTL,
		func(ctx context.Context, _ string) (models.User, error) {
			u, err := s.store.GetUserByID(ctx, id)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		},
	)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.metrics.RecordDatabaseQueryError("get_user_by_id")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &user, nil
}

// InvalidateUserCache drops the cached copy of a user after it changed
func (s *UserService) InvalidateUserCache(ctx context.Context, id string) {
	if err := s.userCache.Delete(ctx, userCacheKeyPrefix+id); err != nil {
		log.Printf("[Cache] Failed to invalidate user=%s: %v", id, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
