package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/cache"
	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/metrics"
	"github.com/go-authgate/fedlink/internal/middleware"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/pending"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"
	"github.com/go-authgate/fedlink/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token and profile endpoints of a GitHub-like provider
type fakeGitHub struct {
	srv *httptest.Server

	mu        sync.Mutex
	profile   map[string]any
	emails    []map[string]any
	failToken bool
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		profile: map[string]any{
			"id":         42,
			"login":      "ada",
			"name":       "Ada Lovelace",
			"email":      "ada@x.com",
			"avatar_url": "https://avatars.example.com/42",
			"blog":       "https://ada.dev",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		fail := f.failToken
		f.mu.Unlock()
		if fail {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "gh-access",
			"refresh_token": "gh-refresh",
			"token_type":    "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.emails)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) setEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile["email"] = email
}

func (f *fakeGitHub) setFailToken(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failToken = fail
}

func (f *fakeGitHub) provider() *auth.OAuthProvider {
	return auth.NewGitHubProvider(auth.OAuthProviderConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost/auth/github?cb=1",
	}).WithEndpoints(oauth2.Endpoint{
		AuthURL:   f.srv.URL + "/authorize",
		TokenURL:  f.srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}, f.srv.URL)
}

// storeFaults makes the store used by reconciliation and merge fail on demand
type storeFaults struct {
	mu         sync.Mutex
	emailCheck error
	write      error
}

func (f *storeFaults) set(emailCheck, write error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailCheck, f.write = emailCheck, write
}

func (f *storeFaults) get() (emailCheck, write error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.emailCheck, f.write
}

type faultyStore struct {
	*store.Store
	faults *storeFaults
}

func (s *faultyStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err, _ := s.faults.get(); err != nil {
		return nil, err
	}
	return s.Store.GetUserByEmail(ctx, email)
}

func (s *faultyStore) CreateUserWithService(
	ctx context.Context,
	user *models.User,
	link *models.ServiceLink,
) error {
	if _, err := s.faults.get(); err != nil {
		return err
	}
	return s.Store.CreateUserWithService(ctx, user, link)
}

func (s *faultyStore) SaveUserWithService(
	ctx context.Context,
	user *models.User,
	link *models.ServiceLink,
) error {
	if _, err := s.faults.get(); err != nil {
		return err
	}
	return s.Store.SaveUserWithService(ctx, user, link)
}

// failingSession refuses to save a signed-in session while fail is set
type failingSession struct {
	sessions.Session
	fail *atomic.Bool
}

func (s *failingSession) Save() error {
	if s.fail.Load() && s.Get(session.SessionUserID) != nil {
		return errors.New("session backend unavailable")
	}
	return s.Session.Save()
}

func failSessionSaves(fail *atomic.Bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessions.DefaultKey, &failingSession{Session: sessions.Default(c), fail: fail})
		c.Next()
	}
}

type testApp struct {
	t      *testing.T
	db     *store.Store
	github *fakeGitHub
	oauth  *OAuthHandler
	server *httptest.Server
	client *http.Client

	storeFaults  *storeFaults
	sessionFails *atomic.Bool
}

// newTestApp wires the handlers to an in-memory store and a fake GitHub
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.New(context.Background(), "sqlite", ":memory:", &config.Config{})
	require.NoError(t, err)

	m := metrics.NewNoopMetrics()
	userService := services.NewUserService(
		db, auth.NewLocalAuthProvider(db), cache.NewMemoryCache[models.User](), time.Minute, m,
	)
	est := session.NewEstablisher("http://localhost", m)
	carrier := pending.NewSessionCarrier()
	faults := &storeFaults{}
	reconcileStore := &faultyStore{Store: db, faults: faults}
	sessionFails := &atomic.Bool{}

	gh := newFakeGitHub(t)
	oauthHandler := NewOAuthHandler(
		map[auth.ProviderType]*auth.OAuthProvider{auth.ProviderGitHub: gh.provider()},
		carrier,
		gh.srv.Client(),
		m,
	)
	confirmHandler := NewConfirmHandler(
		carrier,
		services.NewIdentityResolver(reconcileStore, m),
		services.NewMergeService(reconcileStore, userService, m),
		est,
	)
	authHandler := NewAuthHandler(userService, est, oauthHandler.Providers())

	r := gin.New()
	r.Use(sessions.Sessions("fedlink_session",
		session.NewCookieStore("test-secret", "", sessions.Options{Path: "/", HttpOnly: true})))
	r.Use(failSessionSaves(sessionFails))
	r.Use(middleware.LoadUser(userService))
	r.Use(middleware.CSRFMiddleware())

	r.GET("/", authHandler.Home)
	r.GET("/test-csrf", func(c *gin.Context) { c.String(http.StatusOK, middleware.GetCSRFToken(c)) })
	r.GET("/sign-in", authHandler.SignInPage)
	r.POST("/sign-in", authHandler.SignIn)
	r.GET("/join", authHandler.JoinPage)
	r.POST("/join", authHandler.Join)
	r.GET("/sign-out", authHandler.SignOut)
	r.GET("/auth/confirm", confirmHandler.ShowConfirm)
	r.POST("/auth/confirm", confirmHandler.SubmitConfirm)
	r.GET("/auth/:provider", oauthHandler.Authenticate)
	r.GET("/me", middleware.RequireAuth(est), authHandler.Account)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:      t,
		db:     db,
		github: gh,
		oauth:  oauthHandler,
		server: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},

		storeFaults:  faults,
		sessionFails: sessionFails,
	}
}

// sessionPayload returns the value segment of the session cookie held by
// the client, as it travels on the wire
func (a *testApp) sessionPayload() string {
	a.t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(a.t, err)

	for _, ck := range a.client.Jar.Cookies(u) {
		if ck.Name != "fedlink_session" {
			continue
		}
		raw, err := base64.URLEncoding.DecodeString(ck.Value)
		require.NoError(a.t, err)
		parts := strings.SplitN(string(raw), "|", 3)
		require.Len(a.t, parts, 3)
		payload, err := base64.URLEncoding.DecodeString(parts[1])
		require.NoError(a.t, err)
		return string(payload)
	}
	a.t.Fatal("no session cookie")
	return ""
}

type testResponse struct {
	Code     int
	Location string
	Body     string
}

func (a *testApp) do(req *http.Request) testResponse {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return testResponse{Code: resp.StatusCode, Location: resp.Header.Get("Location"), Body: string(body)}
}

func (a *testApp) get(path string) testResponse {
	a.t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

// post submits form with the session's CSRF token
func (a *testApp) post(path string, form url.Values) testResponse {
	a.t.Helper()
	form.Set("csrf_token", a.get("/test-csrf").Body)

	req, err := http.NewRequestWithContext(
		context.Background(), http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()),
	)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

// githubCallback runs the provider redirect and callback and returns the
// callback response
func (a *testApp) githubCallback() testResponse {
	a.t.Helper()
	begin := a.get("/auth/github")
	require.Equal(a.t, http.StatusTemporaryRedirect, begin.Code)

	authURL, err := url.Parse(begin.Location)
	require.NoError(a.t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(a.t, state)

	return a.get("/auth/github?cb=1&code=test-code&state=" + url.QueryEscape(state))
}

func (a *testApp) join(first, last, email, password string) testResponse {
	a.t.Helper()
	return a.post("/join", url.Values{
		"first":    {first},
		"last":     {last},
		"email":    {email},
		"password": {password},
	})
}

// linkedUser creates a user whose github slot is profile 42
func (a *testApp) linkedUser(email string) *models.User {
	a.t.Helper()
	user := &models.User{
		ID:           "linked-user",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: "x",
		State:        models.UserStateEnabled,
	}
	link := &models.ServiceLink{
		Provider:     string(auth.ProviderGitHub),
		ProfileID:    "42",
		IsConfigured: true,
		Username:     "ada",
	}
	require.NoError(a.t, a.db.CreateUserWithService(context.Background(), user, link))
	return user
}
