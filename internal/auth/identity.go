package auth

import "fmt"

// ProviderType identifies an OAuth provider a user can sign in with
type ProviderType string

const (
	ProviderGitHub   ProviderType = "github"
	ProviderFacebook ProviderType = "facebook"
	ProviderGoogle   ProviderType = "google"
	ProviderTwitter  ProviderType = "twitter"
)

// Providers lists every supported provider in avatar-precedence order
var Providers = []ProviderType{
	ProviderGitHub,
	ProviderFacebook,
	ProviderGoogle,
	ProviderTwitter,
}

// ParseProviderType converts a route parameter into a ProviderType
func ParseProviderType(s string) (ProviderType, error) {
	for _, p := range Providers {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// DisplayName returns the human-readable provider name
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderGitHub:
		return "GitHub"
	case ProviderFacebook:
		return "Facebook"
	case ProviderGoogle:
		return "Google"
	case ProviderTwitter:
		return "Twitter"
	default:
		return string(p)
	}
}

// FederatedIdentity is a provider profile normalized into a fixed shape.
// ProfileID is only meaningful together with Provider.
type FederatedIdentity struct {
	Provider  ProviderType `json:"type"`
	ProfileID string       `json:"profileId"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"` // empty when the provider exposes none
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar"`
	Website   string `json:"website,omitempty"`

	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Key returns the durable (provider, profile id) join key
func (f *FederatedIdentity) Key() string {
	return string(f.Provider) + ":" + f.ProfileID
}
