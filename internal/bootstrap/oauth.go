package bootstrap

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/config"

	"github.com/appleboy/go-httpclient"
)

// providerSetup pairs a provider's settings with its constructor
type providerSetup struct {
	provider auth.ProviderType
	cfg      config.ProviderConfig
	build    func(auth.OAuthProviderConfig) *auth.OAuthProvider
}

// providerSetups lists the supported providers in display order
func providerSetups(cfg *config.Config) []providerSetup {
	return []providerSetup{
		{auth.ProviderGitHub, cfg.GitHub, auth.NewGitHubProvider},
		{auth.ProviderFacebook, cfg.Facebook, auth.NewFacebookProvider},
		{auth.ProviderGoogle, cfg.Google, auth.NewGoogleProvider},
		{auth.ProviderTwitter, cfg.Twitter, auth.NewTwitterProvider},
	}
}

// initializeOAuthProviders initializes configured OAuth providers
func initializeOAuthProviders(cfg *config.Config) map[auth.ProviderType]*auth.OAuthProvider {
	providers := make(map[auth.ProviderType]*auth.OAuthProvider)

	for _, s := range providerSetups(cfg) {
		switch {
		case !s.cfg.Enabled:
			// Skip
		case !s.cfg.Configured():
			log.Printf(
				"Warning: %s OAuth enabled but CLIENT_ID or CLIENT_SECRET missing",
				s.provider.DisplayName(),
			)
		default:
			providers[s.provider] = s.build(auth.OAuthProviderConfig{
				ClientID:     s.cfg.ClientID,
				ClientSecret: s.cfg.ClientSecret,
				RedirectURL:  s.cfg.RedirectURL,
				Scopes:       s.cfg.Scopes,
			})
			log.Printf("%s OAuth configured: redirect=%s", s.provider.DisplayName(), s.cfg.RedirectURL)
		}
	}

	return providers
}

// getProviderNames returns the provider names in display order
func getProviderNames(providers map[auth.ProviderType]*auth.OAuthProvider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range auth.Providers {
		if _, ok := providers[p]; ok {
			names = append(names, string(p))
		}
	}
	return names
}

// createOAuthHTTPClient creates the HTTP client used for token exchange and profile requests
func createOAuthHTTPClient(cfg *config.Config) (*http.Client, error) {
	if cfg.OAuthInsecureSkipVerify {
		log.Printf("WARNING: OAuth TLS verification is disabled (OAUTH_INSECURE_SKIP_VERIFY=true)")
	}

	httpClient, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.OAuthTimeout),
		httpclient.WithInsecureSkipVerify(cfg.OAuthInsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth HTTP client: %w", err)
	}
	return httpClient, nil
}

// logOAuthProvidersStatus logs enabled OAuth providers
func logOAuthProvidersStatus(providers map[auth.ProviderType]*auth.OAuthProvider) {
	if len(providers) == 0 {
		log.Printf("No OAuth providers enabled; only email sign-in is available")
		return
	}
	log.Printf("OAuth providers enabled: %v", getProviderNames(providers))
}
