package auth

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// GitHubProfile is the subset of GET /user used for sign-in.
// Emails is filled from GET /user/emails when the profile email is private.
type GitHubProfile struct {
	ID        int64    `json:"id"`
	Login     string   `json:"login"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	AvatarURL string   `json:"avatar_url"`
	Blog      string   `json:"blog"`
	Emails    []string `json:"-"`
}

// FacebookProfile is the subset of the Graph API /me response used for sign-in
type FacebookProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Blog     string `json:"blog"`
}

// GoogleProfile is the subset of the userinfo response used for sign-in
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Username      string `json:"username"`
	Blog          string `json:"blog"`
}

// TwitterProfile is the "data" object of GET /2/users/me
type TwitterProfile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
	Entities        struct {
		URL struct {
			URLs []struct {
				ExpandedURL string `json:"expanded_url"`
			} `json:"urls"`
		} `json:"url"`
	} `json:"entities"`
}

// NormalizeGitHub converts a GitHub profile into a FederatedIdentity
func NormalizeGitHub(raw GitHubProfile, accessToken, refreshToken string) *FederatedIdentity {
	first, last := splitDisplayName(raw.Name)

	email := raw.Email
	if email == "" && len(raw.Emails) > 0 {
		email = raw.Emails[0]
	}

	var profileID string
	if raw.ID != 0 {
		profileID = strconv.FormatInt(raw.ID, 10)
	}

	return &FederatedIdentity{
		Provider:     ProviderGitHub,
		ProfileID:    profileID,
		FirstName:    first,
		LastName:     last,
		Email:        email,
		Username:     raw.Login,
		AvatarURL:    raw.AvatarURL,
		Website:      raw.Blog,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// NormalizeFacebook converts a Facebook profile into a FederatedIdentity.
// The avatar is always the Graph API picture endpoint for the profile id.
func NormalizeFacebook(raw FacebookProfile, accessToken, refreshToken string) *FederatedIdentity {
	first, last := splitDisplayName(raw.Name)

	return &FederatedIdentity{
		Provider:     ProviderFacebook,
		ProfileID:    raw.ID,
		FirstName:    first,
		LastName:     last,
		Email:        raw.Email,
		Username:     raw.Username,
		AvatarURL:    facebookAvatarURL(raw.ID),
		Website:      raw.Blog,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// NormalizeGoogle converts a Google profile into a FederatedIdentity
func NormalizeGoogle(raw GoogleProfile, accessToken, refreshToken string) *FederatedIdentity {
	var email string
	if raw.VerifiedEmail {
		email = raw.Email
	}

	return &FederatedIdentity{
		Provider:     ProviderGoogle,
		ProfileID:    raw.ID,
		FirstName:    raw.GivenName,
		LastName:     raw.FamilyName,
		Email:        email,
		Username:     raw.Username,
		AvatarURL:    raw.Picture,
		Website:      raw.Blog,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// NormalizeTwitter converts a Twitter profile into a FederatedIdentity.
// Twitter never exposes an email address.
func NormalizeTwitter(raw TwitterProfile, accessToken, refreshToken string) *FederatedIdentity {
	first, last := splitDisplayName(raw.Name)

	var website string
	if urls := raw.Entities.URL.URLs; len(urls) > 0 {
		website = urls[0].ExpandedURL
	}

	return &FederatedIdentity{
		Provider:     ProviderTwitter,
		ProfileID:    raw.ID,
		FirstName:    first,
		LastName:     last,
		Username:     raw.Username,
		AvatarURL:    strings.Replace(raw.ProfileImageURL, "_normal", "", 1),
		Website:      website,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

func facebookAvatarURL(profileID string) string {
	return fmt.Sprintf("https://graph.facebook.com/%s/picture?width=600&height=600", profileID)
}

// splitDisplayName splits on the first whitespace: the first token is the
// first name and the remainder is the last name
func splitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	i := strings.IndexFunc(name, unicode.IsSpace)
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimSpace(name[i:])
}
