package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/pending"
	"github.com/go-authgate/fedlink/internal/templates"
	"github.com/go-authgate/fedlink/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// Session keys for an in-flight provider redirect
const (
	SessionOAuthState    = "oauth_state"
	SessionOAuthProvider = "oauth_provider"
	SessionOAuthVerifier = "oauth_verifier"
)

const stateBytes = 32

var errStateMismatch = errors.New("oauth state mismatch")

// OAuthHandler starts the provider redirect and handles the provider callback
type OAuthHandler struct {
	providers  map[auth.ProviderType]*auth.OAuthProvider
	carrier    pending.Carrier
	httpClient *http.Client // Custom HTTP client for OAuth requests
	metrics    core.Recorder
}

func NewOAuthHandler(
	providers map[auth.ProviderType]*auth.OAuthProvider,
	carrier pending.Carrier,
	httpClient *http.Client,
	m core.Recorder,
) *OAuthHandler {
	return &OAuthHandler{
		providers:  providers,
		carrier:    carrier,
		httpClient: httpClient,
		metrics:    m,
	}
}

// Providers lists the enabled providers in display order
func (h *OAuthHandler) Providers() []templates.OAuthProvider {
	var out []templates.OAuthProvider
	for _, p := range auth.Providers {
		if _, ok := h.providers[p]; ok {
			out = append(out, templates.OAuthProvider{Name: string(p), DisplayName: p.DisplayName()})
		}
	}
	return out
}

// Authenticate serves GET /auth/:provider. Without cb it redirects to the
// provider; with cb=1 it completes the handshake and stashes the identity.
func (h *OAuthHandler) Authenticate(c *gin.Context) {
	providerType, err := auth.ParseProviderType(c.Param("provider"))
	provider, ok := h.providers[providerType]
	if err != nil || !ok {
		renderError(c, http.StatusNotFound, msgUnknownProvider, "")
		return
	}

	if c.Query("cb") == "" {
		h.begin(c, provider)
		return
	}
	h.callback(c, provider)
}

func (h *OAuthHandler) begin(c *gin.Context, provider *auth.OAuthProvider) {
	state, err := util.RandomURLToken(stateBytes)
	if err != nil {
		log.Printf("[OAuth] Failed to generate state: %v", err)
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgTryAgainShortly)
		return
	}

	var verifier string
	if provider.UsesPKCE() {
		verifier = oauth2.GenerateVerifier()
	}

	sess := sessions.Default(c)
	sess.Set(SessionOAuthState, state)
	sess.Set(SessionOAuthProvider, string(provider.Provider()))
	sess.Set(SessionOAuthVerifier, verifier)
	if err := sess.Save(); err != nil {
		log.Printf("[OAuth] Failed to save session: %v", err)
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgTryAgainShortly)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state, verifier))
}

func (h *OAuthHandler) callback(c *gin.Context, provider *auth.OAuthProvider) {
	name := string(provider.Provider())
	sess := sessions.Default(c)

	savedState, _ := sess.Get(SessionOAuthState).(string)
	savedProvider, _ := sess.Get(SessionOAuthProvider).(string)
	verifier, _ := sess.Get(SessionOAuthVerifier).(string)
	sess.Delete(SessionOAuthState)
	sess.Delete(SessionOAuthProvider)
	sess.Delete(SessionOAuthVerifier)

	if reason := c.Query("error"); reason != "" {
		h.fail(c, name, fmt.Errorf("%w: provider returned %s", auth.ErrProviderAuth, reason))
		return
	}
	if savedState == "" || c.Query("state") != savedState || savedProvider != name {
		h.fail(c, name, errStateMismatch)
		return
	}

	ctx := context.WithValue(c.Request.Context(), oauth2.HTTPClient, h.httpClient)

	start := time.Now()
	token, err := provider.Exchange(ctx, c.Query("code"), verifier)
	if err == nil {
		var identity *auth.FederatedIdentity
		identity, err = provider.FetchIdentity(ctx, token)
		h.metrics.RecordProviderAPICall(name, time.Since(start))
		if err == nil {
			err = h.carrier.Stash(c.Request.Context(), sess, identity)
		}
	}
	if err != nil {
		h.fail(c, name, err)
		return
	}

	h.metrics.RecordOAuthCallback(name, true)
	c.Redirect(http.StatusFound, "/auth/confirm")
}

// fail sends the browser back to the sign-in page with a generic message
func (h *OAuthHandler) fail(c *gin.Context, provider string, err error) {
	h.metrics.RecordOAuthCallback(provider, false)
	log.Printf("[OAuth] %s callback failed: %v", provider, err)
	addFlash(c, msgProviderFailed)
	c.Redirect(http.StatusFound, "/sign-in")
}
