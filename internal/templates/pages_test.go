package templates

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestConfirmPage_Prefilled(t *testing.T) {
	html := render(t, ConfirmPage(ConfirmPageProps{
		BaseProps:    BaseProps{CSRFToken: "tok"},
		Provider:     "github",
		ProviderName: "GitHub",
		Username:     "ada",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@x.com",
		Error:        "Please enter a name & email.",
	}))

	assert.Contains(t, html, `name="csrf_token" value="tok"`)
	assert.Contains(t, html, `name="first" value="Ada"`)
	assert.Contains(t, html, `name="last" value="Lovelace"`)
	assert.Contains(t, html, `name="email" value="ada@x.com"`)
	assert.Contains(t, html, "signing in with GitHub")
	assert.Contains(t, html, "Please enter a name &amp; email.")
}

func TestConfirmPage_EscapesValues(t *testing.T) {
	html := render(t, ConfirmPage(ConfirmPageProps{
		ProviderName: "Twitter",
		FirstName:    `"><script>alert(1)</script>`,
	}))
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestSignInPage(t *testing.T) {
	html := render(t, SignInPage(SignInPageProps{
		BaseProps: BaseProps{
			CSRFToken: "tok",
			Flashes:   []string{"There's already an account with that email address, please sign-in instead."},
		},
		Target: "/me",
		OAuthProviders: []OAuthProvider{
			{Name: "github", DisplayName: "GitHub"},
			{Name: "twitter", DisplayName: "Twitter"},
		},
	}))

	assert.Contains(t, html, `action="/sign-in"`)
	assert.Contains(t, html, `href="/auth/github"`)
	assert.Contains(t, html, "Continue with Twitter")
	assert.Contains(t, html, "already an account with that email address")
}

func TestJoinPage(t *testing.T) {
	html := render(t, JoinPage(JoinPageProps{
		Error:     "There's already an account with that email address, please sign-in instead.",
		FirstName: "Ada",
	}))
	assert.Contains(t, html, `action="/join"`)
	assert.Contains(t, html, `name="first" value="Ada"`)
	assert.Contains(t, html, `class="error"`)
}

func TestAccountPage(t *testing.T) {
	html := render(t, AccountPage(AccountPageProps{
		Navbar: NavbarProps{
			CSRFToken: "tok",
			SignedIn:  true,
			FullName:  "Ada Lovelace",
			AvatarURL: "https://avatars.example.com/42",
		},
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@x.com",
		Services: []LinkedService{
			{Provider: "github", DisplayName: "GitHub", Username: "ada"},
		},
		AvailableProviders: []OAuthProvider{{Name: "google", DisplayName: "Google"}},
	}))

	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "GitHub: ada")
	assert.Contains(t, html, `href="/auth/google"`)
	assert.Contains(t, html, `action="/sign-out"`)
}

func TestAccountPage_NoServices(t *testing.T) {
	html := render(t, AccountPage(AccountPageProps{FirstName: "Ada"}))
	assert.Contains(t, html, "No linked accounts yet.")
}

func TestRenderTempl(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/missing", nil)

	RenderTempl(c, http.StatusNotFound, ErrorPage(ErrorPageProps{
		Error:   "Not found",
		Message: "The page you requested does not exist.",
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Not found")
}

func TestAccountPage_SanitizesWebsite(t *testing.T) {
	html := render(t, AccountPage(AccountPageProps{
		FirstName: "Ada",
		Website:   "javascript:alert(1)",
	}))
	assert.NotContains(t, html, `href="javascript:`)
	assert.Contains(t, html, "about:invalid")
}

func TestAccountPage_ShowsFlashes(t *testing.T) {
	html := render(t, AccountPage(AccountPageProps{
		BaseProps: BaseProps{Flashes: []string{"That GitHub account is already linked to another user."}},
		FirstName: "Ada",
	}))
	assert.Contains(t, html, `<p class="flash">That GitHub account is already linked to another user.</p>`)
}

func TestSignInPage_PasswordNeverEchoed(t *testing.T) {
	html := render(t, SignInPage(SignInPageProps{Email: "ada@x.com"}))
	assert.Contains(t, html, `name="email" value="ada@x.com" required autofocus`)
	assert.Contains(t, html, `<input type="password" name="password" required>`)
}
