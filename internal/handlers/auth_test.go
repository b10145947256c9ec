package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_RedirectsToAccount(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/")
	assert.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/me", res.Location)
}

func TestAccount_RequiresSignIn(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/me")
	assert.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/sign-in", res.Location)
}

func TestJoin(t *testing.T) {
	app := newTestApp(t)

	page := app.get("/join")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body, "Continue with GitHub")

	res := app.join("Grace", "Hopper", " Grace@X.com ", "cobol-rules")
	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/me", res.Location)

	me := app.get("/me")
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body, "grace@x.com")
	assert.Contains(t, me.Body, "No linked accounts yet.")
	assert.Contains(t, me.Body, `href="/auth/github"`)
}

func TestJoin_Errors(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusFound, app.join("Grace", "Hopper", "grace@x.com", "pw-1").Code)
	require.Equal(t, http.StatusFound, app.get("/sign-out").Code)

	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing password",
			form:     url.Values{"first": {"A"}, "last": {"B"}, "email": {"a@x.com"}},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Please enter your name, email and password.",
		},
		{
			name:     "invalid email",
			form:     url.Values{"first": {"A"}, "last": {"B"}, "email": {"nope"}, "password": {"pw"}},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Please enter a valid email address.",
		},
		{
			name:     "duplicate email",
			form:     url.Values{"first": {"A"}, "last": {"B"}, "email": {"grace@x.com"}, "password": {"pw"}},
			wantCode: http.StatusConflict,
			wantMsg:  "already an account with that email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := app.post("/join", tt.form)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Contains(t, res.Body, tt.wantMsg)
			assert.Contains(t, res.Body, `name="first" value="A"`)
		})
	}
}

func TestSignIn(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusFound, app.join("Grace", "Hopper", "grace@x.com", "cobol-rules").Code)
	require.Equal(t, http.StatusFound, app.get("/sign-out").Code)

	t.Run("wrong password", func(t *testing.T) {
		res := app.post("/sign-in", url.Values{"email": {"grace@x.com"}, "password": {"fortran"}})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body, "email and password combo are not valid")
		assert.Contains(t, res.Body, `value="grace@x.com"`)
	})

	t.Run("unsafe target ignored", func(t *testing.T) {
		res := app.post("/sign-in", url.Values{
			"email":    {"grace@x.com"},
			"password": {"cobol-rules"},
			"target":   {"https://evil.com/"},
		})
		require.Equal(t, http.StatusFound, res.Code)
		assert.Equal(t, "/me", res.Location)
	})

	t.Run("signed-in users skip the form", func(t *testing.T) {
		res := app.get("/sign-in")
		assert.Equal(t, http.StatusFound, res.Code)
		assert.Equal(t, "/me", res.Location)

		res = app.get("/join")
		assert.Equal(t, http.StatusFound, res.Code)
	})

	t.Run("sign out", func(t *testing.T) {
		res := app.get("/sign-out")
		assert.Equal(t, http.StatusFound, res.Code)
		assert.Equal(t, "/", res.Location)
		assert.Equal(t, "/sign-in", app.get("/me").Location)
	})
}

func TestSignIn_ReturnsToRememberedTarget(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusFound, app.join("Grace", "Hopper", "grace@x.com", "cobol-rules").Code)
	require.Equal(t, http.StatusFound, app.get("/sign-out").Code)

	require.Equal(t, "/sign-in", app.get("/me?tab=services").Location)

	res := app.post("/sign-in", url.Values{"email": {"grace@x.com"}, "password": {"cobol-rules"}})
	require.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/me?tab=services", res.Location)
}

func TestSignInPage_SessionTimeoutMessage(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/sign-in?error=session_timeout")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, "Your session has expired")
}

func TestSignIn_RejectsMissingCSRFToken(t *testing.T) {
	app := newTestApp(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, app.server.URL+"/sign-in", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, app.do(req).Code)
}

type fakeHealth struct{ err error }

func (f fakeHealth) Health(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "healthy", wantCode: http.StatusOK, wantBody: `"database":"connected"`},
		{name: "database down", err: errors.New("dial tcp: refused"), wantCode: http.StatusServiceUnavailable, wantBody: `"status":"unhealthy"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(fakeHealth{err: tt.err}, time.Second).Check)

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/health", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
