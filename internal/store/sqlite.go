package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ core.UserStore = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(ctx context.Context, driver, dsn string, cfg *config.Config) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" opens its own empty database
	if driver == "sqlite" && dsn == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.ServiceLink{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db}

	if err := store.seedData(ctx, cfg); err != nil {
		log.Printf("[Store] Warning: failed to seed data: %v", err)
	}

	return store, nil
}

// generateRandomPassword generates a random password of specified length
func generateRandomPassword(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// seedData creates the configured administrator if no user owns that email
func (s *Store) seedData(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	// Stored emails are lowercase; sign-in normalizes before lookup
	email := strings.ToLower(strings.TrimSpace(cfg.DefaultAdminEmail))
	if email == "" {
		return nil
	}

	_, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return err
	}

	password := cfg.DefaultAdminPassword
	generated := password == ""
	if generated {
		if password, err = generateRandomPassword(16); err != nil {
			return err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           uuid.New().String(),
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
		State:        models.UserStateEnabled,
		IsVerified:   true,
	}
	if err := s.CreateUser(ctx, admin); err != nil {
		return err
	}

	if generated {
		log.Printf("[Store] Created default admin: %s / %s", admin.Email, password)
	} else {
		log.Printf("[Store] Created default admin: %s", admin.Email)
	}
	return nil
}

// User operations

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Services").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetUserByEmail finds a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Services").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetUserByServiceProfile finds the user linked to (provider, profileID)
func (s *Store) GetUserByServiceProfile(
	ctx context.Context,
	provider, profileID string,
) (*models.User, error) {
	var link models.ServiceLink
	err := s.db.WithContext(ctx).
		Where("provider = ? AND profile_id = ? AND is_configured = ?", provider, profileID, true).
		First(&link).Error
	if err != nil {
		return nil, translateError(err)
	}
	return s.GetUserByID(ctx, link.UserID)
}

// CreateUser creates a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return translateError(s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error)
}

// CreateUserWithService inserts a user and its first service link in one transaction
func (s *Store) CreateUserWithService(
	ctx context.Context,
	user *models.User,
	link *models.ServiceLink,
) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		link.ID = uuid.New().String()
		link.UserID = user.ID
		return tx.Create(link).Error
	})
	if err != nil {
		return translateError(err)
	}

	user.Services = []models.ServiceLink{*link}
	return nil
}

// SaveUserWithService updates the user row and inserts or replaces the link
// for link.Provider in one transaction. Links for other providers are not written.
func (s *Store) SaveUserWithService(
	ctx context.Context,
	user *models.User,
	link *models.ServiceLink,
) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(user).Error; err != nil {
			return err
		}

		var existing models.ServiceLink
		err := tx.Where("user_id = ? AND provider = ?", user.ID, link.Provider).
			First(&existing).Error
		switch {
		case err == nil:
			link.ID = existing.ID
			link.CreatedAt = existing.CreatedAt
			link.UserID = user.ID
			return tx.Save(link).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			link.ID = uuid.New().String()
			link.UserID = user.ID
			return tx.Create(link).Error
		default:
			return err
		}
	})
	if err != nil {
		return translateError(err)
	}

	replaceService(user, *link)
	return nil
}

func replaceService(user *models.User, link models.ServiceLink) {
	for i := range user.Services {
		if user.Services[i].Provider == link.Provider {
			user.Services[i] = link
			return
		}
	}
	user.Services = append(user.Services, link)
}

// Metrics operations

// CountUsers returns the number of user accounts
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// CountServiceLinks returns the number of configured links for provider
func (s *Store) CountServiceLinks(ctx context.Context, provider string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ServiceLink{}).
		Where("provider = ? AND is_configured = ?", provider, true).
		Count(&count).Error
	return count, err
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- sqlDB.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DB returns the underlying GORM database connection
func (s *Store) DB() *gorm.DB {
	return s.db
}
