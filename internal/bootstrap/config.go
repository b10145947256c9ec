package bootstrap

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/go-authgate/fedlink/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := validateProviderConfig(cfg); err != nil {
		log.Fatalf("Invalid OAuth provider configuration: %v", err)
	}
}

// validateProviderConfig checks the callback URL of every enabled provider.
// Missing credentials only disable the provider (see initializeOAuthProviders).
func validateProviderConfig(cfg *config.Config) error {
	for _, s := range providerSetups(cfg) {
		if !s.cfg.Enabled {
			continue
		}
		u, err := url.Parse(s.cfg.RedirectURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s_REDIRECT_URL must be an absolute http(s) URL: %q",
				strings.ToUpper(string(s.provider)), s.cfg.RedirectURL)
		}
	}
	return nil
}
