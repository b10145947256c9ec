package models

import (
	"strings"
	"time"
)

// User states
const (
	UserStateEnabled  = "enabled"
	UserStateDisabled = "disabled"
)

// servicePrecedence is the order in which linked services supply the avatar
var servicePrecedence = []string{"github", "facebook", "google", "twitter"}

type User struct {
	ID           string `gorm:"primaryKey"`
	FirstName    string
	LastName     string
	Email        string `gorm:"uniqueIndex;not null"` // Email is unique and required
	PasswordHash string `gorm:"not null"`             // Federated-only users get a random placeholder
	IsAdmin      bool
	State        string `gorm:"not null;default:'enabled'"` // "enabled" or "disabled"
	IsVerified   bool
	Website      string

	// Linked provider accounts, at most one per provider
	Services []ServiceLink `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsEnabled returns true if the user may sign in
func (u *User) IsEnabled() bool {
	return u.State == "" || u.State == UserStateEnabled
}

// Service returns the configured link for provider, or nil
func (u *User) Service(provider string) *ServiceLink {
	for i := range u.Services {
		if u.Services[i].Provider == provider && u.Services[i].IsConfigured {
			return &u.Services[i]
		}
	}
	return nil
}

// ServiceUsername returns the handle on a configured provider, or ""
func (u *User) ServiceUsername(provider string) string {
	if s := u.Service(provider); s != nil {
		return s.Username
	}
	return ""
}

// AvatarURL returns the avatar of the first configured service that has one,
// checking github, facebook, google, then twitter.
func (u *User) AvatarURL() string {
	for _, p := range servicePrecedence {
		if s := u.Service(p); s != nil && s.AvatarURL != "" {
			return s.AvatarURL
		}
	}
	return ""
}

// ConfiguredServices lists the providers linked to this user in precedence order
func (u *User) ConfiguredServices() []string {
	var out []string
	for _, p := range servicePrecedence {
		if u.Service(p) != nil {
			out = append(out, p)
		}
	}
	return out
}
