package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newFakeProviderServer serves a token endpoint and the given profile routes
func newFakeProviderServer(t *testing.T, routes map[string]any) (*httptest.Server, *url.Values) {
	t.Helper()
	tokenForm := &url.Values{}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*tokenForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"token_type":    "bearer",
		})
	})
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, tokenForm
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func testConfig() OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/github?cb=1",
	}
}

func TestGitHubProvider_FetchIdentity_PrivateEmail(t *testing.T) {
	srv, _ := newFakeProviderServer(t, map[string]any{
		"/user": map[string]any{
			"id":         42,
			"login":      "ada",
			"name":       "Ada Lovelace",
			"email":      "",
			"avatar_url": "https://avatars.example.com/42",
		},
		"/user/emails": []map[string]any{
			{"email": "unverified@x.com", "primary": false, "verified": false},
			{"email": "secondary@x.com", "primary": false, "verified": true},
			{"email": "ada@x.com", "primary": true, "verified": true},
		},
	})

	p := NewGitHubProvider(testConfig()).WithEndpoints(testEndpoint(srv), srv.URL)
	ctx := context.Background()

	token, err := p.Exchange(ctx, "code", "")
	require.NoError(t, err)

	identity, err := p.FetchIdentity(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, identity.Provider)
	assert.Equal(t, "42", identity.ProfileID)
	assert.Equal(t, "ada@x.com", identity.Email)
	assert.Equal(t, "Ada", identity.FirstName)
	assert.Equal(t, "access-123", identity.AccessToken)
	assert.Equal(t, "refresh-456", identity.RefreshToken)
}

func TestFacebookProvider_FetchIdentity(t *testing.T) {
	srv, _ := newFakeProviderServer(t, map[string]any{
		"/me": map[string]any{"id": "555", "name": "Grace Hopper", "email": "grace@x.com"},
	})

	p := NewFacebookProvider(testConfig()).WithEndpoints(testEndpoint(srv), srv.URL)
	ctx := context.Background()

	token, err := p.Exchange(ctx, "code", "")
	require.NoError(t, err)
	identity, err := p.FetchIdentity(ctx, token)
	require.NoError(t, err)

	assert.Equal(t, "555", identity.ProfileID)
	assert.Equal(t, "grace@x.com", identity.Email)
	assert.Equal(t, "https://graph.facebook.com/555/picture?width=600&height=600", identity.AvatarURL)
}

func TestTwitterProvider_UsesPKCE(t *testing.T) {
	srv, tokenForm := newFakeProviderServer(t, map[string]any{
		"/2/users/me": map[string]any{
			"data": map[string]any{
				"id":                "99",
				"name":              "Alan Turing",
				"username":          "alan",
				"profile_image_url": "https://pbs.twimg.com/p/abc_normal.png",
			},
		},
	})

	p := NewTwitterProvider(testConfig()).WithEndpoints(testEndpoint(srv), srv.URL)
	require.True(t, p.UsesPKCE())

	verifier := oauth2.GenerateVerifier()
	authURL, err := url.Parse(p.AuthCodeURL("state-1", verifier))
	require.NoError(t, err)
	assert.Equal(t, "S256", authURL.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, authURL.Query().Get("code_challenge"))

	ctx := context.Background()
	token, err := p.Exchange(ctx, "code", verifier)
	require.NoError(t, err)
	assert.Equal(t, verifier, tokenForm.Get("code_verifier"))

	identity, err := p.FetchIdentity(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "https://pbs.twimg.com/p/abc.png", identity.AvatarURL)
	assert.Empty(t, identity.Email)
}

func TestGoogleProvider_AuthCodeURLRequestsOfflineAccess(t *testing.T) {
	p := NewGoogleProvider(testConfig())
	authURL, err := url.Parse(p.AuthCodeURL("state-1", "ignored"))
	require.NoError(t, err)

	assert.Equal(t, "offline", authURL.Query().Get("access_type"))
	assert.Empty(t, authURL.Query().Get("code_challenge"))
	assert.Equal(t, "state-1", authURL.Query().Get("state"))
}

func TestFetchIdentity_APIErrorIsProviderAuthError(t *testing.T) {
	srv, _ := newFakeProviderServer(t, map[string]any{})

	p := NewGoogleProvider(testConfig()).WithEndpoints(testEndpoint(srv), srv.URL)
	_, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "access-123"})
	assert.ErrorIs(t, err, ErrProviderAuth)
}

func TestFetchIdentity_MissingProfileID(t *testing.T) {
	srv, _ := newFakeProviderServer(t, map[string]any{
		"/oauth2/v2/userinfo": map[string]any{"email": "x@x.com"},
	})

	p := NewGoogleProvider(testConfig()).WithEndpoints(testEndpoint(srv), srv.URL)
	_, err := p.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "access-123"})
	assert.ErrorIs(t, err, ErrProviderAuth)
}
