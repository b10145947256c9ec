package models

import (
	"time"
)

// ServiceLink is one provider slot of a user: the federated account
// (Provider, ProfileID) linked to UserID.
type ServiceLink struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"not null;uniqueIndex:idx_service_user_provider,priority:1"`
	Provider  string `gorm:"not null;uniqueIndex:idx_service_provider_profile,priority:1;uniqueIndex:idx_service_user_provider,priority:2"` // "github", "facebook", "google", "twitter"
	ProfileID string `gorm:"not null;uniqueIndex:idx_service_provider_profile,priority:2"`                                                 // Provider's user ID

	IsConfigured bool
	Username     string // Provider's username
	AvatarURL    string // Avatar URL from provider

	// Token storage (should be encrypted in production)
	AccessToken  string `gorm:"type:text"`
	RefreshToken string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ServiceLink) TableName() string {
	return "service_links"
}
