package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuthProvider begins and completes the OAuth handshake for one provider
// and turns the provider profile into a FederatedIdentity
type OAuthProvider struct {
	config   *oauth2.Config
	provider ProviderType
	apiURL   string // base URL of the profile API
	usePKCE  bool
}

// twitterEndpoint is the OAuth 2.0 user-context endpoint for Twitter
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

func newProvider(
	p ProviderType,
	cfg OAuthProviderConfig,
	endpoint oauth2.Endpoint,
	defaultScopes []string,
	apiURL string,
) *OAuthProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &OAuthProvider{
		provider: p,
		apiURL:   apiURL,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
	}
}

// NewGitHubProvider creates a new GitHub OAuth provider
func NewGitHubProvider(cfg OAuthProviderConfig) *OAuthProvider {
	return newProvider(ProviderGitHub, cfg, github.Endpoint,
		[]string{"read:user", "user:email"}, "https://api.github.com")
}

// NewFacebookProvider creates a new Facebook OAuth provider
func NewFacebookProvider(cfg OAuthProviderConfig) *OAuthProvider {
	return newProvider(ProviderFacebook, cfg, facebook.Endpoint,
		[]string{"email"}, "https://graph.facebook.com")
}

// NewGoogleProvider creates a new Google OAuth provider
func NewGoogleProvider(cfg OAuthProviderConfig) *OAuthProvider {
	return newProvider(ProviderGoogle, cfg, google.Endpoint,
		[]string{"profile", "email"}, "https://www.googleapis.com")
}

// NewTwitterProvider creates a new Twitter OAuth 2.0 provider (PKCE required)
func NewTwitterProvider(cfg OAuthProviderConfig) *OAuthProvider {
	p := newProvider(ProviderTwitter, cfg, twitterEndpoint,
		[]string{"users.read", "tweet.read", "offline.access"}, "https://api.twitter.com")
	p.usePKCE = true
	return p
}

// WithEndpoints overrides the OAuth endpoint and profile API base URL
func (p *OAuthProvider) WithEndpoints(endpoint oauth2.Endpoint, apiURL string) *OAuthProvider {
	p.config.Endpoint = endpoint
	p.apiURL = strings.TrimRight(apiURL, "/")
	return p
}

// Provider returns the provider type
func (p *OAuthProvider) Provider() ProviderType {
	return p.provider
}

// DisplayName returns the human-readable provider name
func (p *OAuthProvider) DisplayName() string {
	return p.provider.DisplayName()
}

// UsesPKCE reports whether the provider requires a PKCE verifier
func (p *OAuthProvider) UsesPKCE() bool {
	return p.usePKCE
}

// AuthCodeURL returns the provider authorization URL.
// verifier is ignored unless the provider uses PKCE.
func (p *OAuthProvider) AuthCodeURL(state, verifier string) string {
	var opts []oauth2.AuthCodeOption
	if p.provider == ProviderGoogle {
		opts = append(opts, oauth2.AccessTypeOffline)
	}
	if p.usePKCE && verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange exchanges an authorization code for a token
func (p *OAuthProvider) Exchange(
	ctx context.Context,
	code, verifier string,
) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if p.usePKCE && verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrProviderAuth, err)
	}
	return token, nil
}

// FetchIdentity retrieves the provider profile and normalizes it
func (p *OAuthProvider) FetchIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*FederatedIdentity, error) {
	client := p.config.Client(ctx, token)

	var (
		identity *FederatedIdentity
		err      error
	)
	switch p.provider {
	case ProviderGitHub:
		identity, err = p.fetchGitHub(ctx, client, token)
	case ProviderFacebook:
		identity, err = p.fetchFacebook(ctx, client, token)
	case ProviderGoogle:
		identity, err = p.fetchGoogle(ctx, client, token)
	case ProviderTwitter:
		identity, err = p.fetchTwitter(ctx, client, token)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p.provider)
	}
	if err != nil {
		return nil, err
	}

	if identity.ProfileID == "" {
		return nil, fmt.Errorf("%w: %s profile has no id", ErrProviderAuth, p.provider)
	}
	return identity, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *OAuthProvider) fetchGitHub(
	ctx context.Context,
	client *http.Client,
	token *oauth2.Token,
) (*FederatedIdentity, error) {
	var profile GitHubProfile
	if err := p.getJSON(ctx, client, "/user", &profile); err != nil {
		return nil, err
	}

	// Private profile email: fall back to verified addresses, primary first
	if profile.Email == "" {
		var emails []githubEmail
		if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				profile.Emails = append(profile.Emails, e.Email)
			}
		}
		for _, e := range emails {
			if !e.Primary && e.Verified {
				profile.Emails = append(profile.Emails, e.Email)
			}
		}
	}

	return NormalizeGitHub(profile, token.AccessToken, token.RefreshToken), nil
}

func (p *OAuthProvider) fetchFacebook(
	ctx context.Context,
	client *http.Client,
	token *oauth2.Token,
) (*FederatedIdentity, error) {
	var profile FacebookProfile
	if err := p.getJSON(ctx, client, "/me?fields=id,name,email", &profile); err != nil {
		return nil, err
	}
	return NormalizeFacebook(profile, token.AccessToken, token.RefreshToken), nil
}

func (p *OAuthProvider) fetchGoogle(
	ctx context.Context,
	client *http.Client,
	token *oauth2.Token,
) (*FederatedIdentity, error) {
	var profile GoogleProfile
	if err := p.getJSON(ctx, client, "/oauth2/v2/userinfo", &profile); err != nil {
		return nil, err
	}
	return NormalizeGoogle(profile, token.AccessToken, token.RefreshToken), nil
}

func (p *OAuthProvider) fetchTwitter(
	ctx context.Context,
	client *http.Client,
	token *oauth2.Token,
) (*FederatedIdentity, error) {
	var envelope struct {
		Data TwitterProfile `json:"data"`
	}
	path := "/2/users/me?user.fields=profile_image_url,url,entities"
	if err := p.getJSON(ctx, client, path, &envelope); err != nil {
		return nil, err
	}
	return NormalizeTwitter(envelope.Data, token.AccessToken, token.RefreshToken), nil
}

// getJSON issues a GET against the profile API and decodes the JSON body into v
func (p *OAuthProvider) getJSON(
	ctx context.Context,
	client *http.Client,
	path string,
	v any,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrProviderAuth, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", ErrProviderAuth, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf(
			"%w: %s API error: %s - %s",
			ErrProviderAuth, p.DisplayName(), resp.Status, string(body),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrProviderAuth, path, err)
	}
	return nil
}
