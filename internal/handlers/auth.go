package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/fedlink/internal/auth"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"
	"github.com/go-authgate/fedlink/internal/templates"
	"github.com/go-authgate/fedlink/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves local registration, sign-in, sign-out and the account page
type AuthHandler struct {
	userService *services.UserService
	est         *session.Establisher
	providers   []templates.OAuthProvider
}

func NewAuthHandler(
	us *services.UserService,
	est *session.Establisher,
	providers []templates.OAuthProvider,
) *AuthHandler {
	return &AuthHandler{
		userService: us,
		est:         est,
		providers:   providers,
	}
}

// Home redirects to the account page
func (h *AuthHandler) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, session.DefaultTarget)
}

// SignInPage renders the sign-in form
func (h *AuthHandler) SignInPage(c *gin.Context) {
	if h.redirectSignedIn(c, c.Query("target")) {
		return
	}

	var errMsg string
	if c.Query("error") == "session_timeout" {
		errMsg = msgSessionTimeout
	}
	h.renderSignIn(c, http.StatusOK, "", errMsg)
}

// SignIn handles the sign-in form submission
func (h *AuthHandler) SignIn(c *gin.Context) {
	target := c.PostForm("target")
	if h.redirectSignedIn(c, target) {
		return
	}

	email := c.PostForm("email")
	user, err := h.userService.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	switch {
	case errors.Is(err, services.ErrUserDisabled):
		h.renderSignIn(c, http.StatusForbidden, email, msgAccountDisabled)
		return
	case err != nil:
		log.Printf("[Auth] Failed sign-in from ip=%s", util.GetIPFromContext(c))
		h.renderSignIn(c, http.StatusUnauthorized, email, msgBadCredentials)
		return
	}

	if err := h.est.SignIn(c, user, auth.LocalProviderName); err != nil {
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgTryAgainShortly)
		return
	}
	c.Redirect(http.StatusFound, h.est.Target(c, target))
}

// JoinPage renders the registration form
func (h *AuthHandler) JoinPage(c *gin.Context) {
	if h.redirectSignedIn(c, c.Query("target")) {
		return
	}
	h.renderJoin(c, http.StatusOK, services.Registration{}, "")
}

// Join creates a local account and signs it in
func (h *AuthHandler) Join(c *gin.Context) {
	target := c.PostForm("target")
	if h.redirectSignedIn(c, target) {
		return
	}

	form := services.Registration{
		FirstName: c.PostForm("first"),
		LastName:  c.PostForm("last"),
		Email:     c.PostForm("email"),
		Password:  c.PostForm("password"),
	}

	user, err := h.userService.Register(c.Request.Context(), form)
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		h.renderJoin(c, http.StatusBadRequest, form, msgInvalidEmail)
		return
	case errors.Is(err, services.ErrValidation):
		h.renderJoin(c, http.StatusBadRequest, form, msgJoinRequired)
		return
	case errors.Is(err, services.ErrConflict):
		h.renderJoin(c, http.StatusConflict, form, msgEmailConflict)
		return
	case err != nil:
		log.Printf("[Auth] Registration failed: %v", err)
		h.renderJoin(c, http.StatusInternalServerError, form, msgSaveFailed)
		return
	}

	if err := h.est.SignIn(c, user, auth.LocalProviderName); err != nil {
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgSignInFailed)
		return
	}
	c.Redirect(http.StatusFound, h.est.Target(c, target))
}

// SignOut clears the session and returns to the home page
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.est.SignOut(c); err != nil {
		log.Printf("[Session] Sign-out failed: %v", err)
		renderError(c, http.StatusInternalServerError, msgSomethingBroken, msgTryAgainShortly)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Account renders the signed-in landing page. Requires RequireAuth.
func (h *AuthHandler) Account(c *gin.Context) {
	user := models.GetUserFromContext(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/sign-in")
		return
	}

	var (
		linked    []templates.LinkedService
		available []templates.OAuthProvider
	)
	for _, p := range h.providers {
		if link := user.Service(p.Name); link != nil {
			linked = append(linked, templates.LinkedService{
				Provider:    p.Name,
				DisplayName: p.DisplayName,
				Username:    link.Username,
				AvatarURL:   link.AvatarURL,
			})
			continue
		}
		available = append(available, p)
	}

	templates.RenderTempl(c, http.StatusOK, templates.AccountPage(templates.AccountPageProps{
		BaseProps:          baseProps(c),
		Navbar:             navbarProps(c, user),
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		Email:              user.Email,
		Website:            user.Website,
		IsAdmin:            user.IsAdmin,
		Services:           linked,
		AvailableProviders: available,
	}))
}

// redirectSignedIn sends an already signed-in user to their target
func (h *AuthHandler) redirectSignedIn(c *gin.Context, target string) bool {
	if models.GetUserFromContext(c) == nil {
		return false
	}
	c.Redirect(http.StatusFound, h.est.Target(c, target))
	return true
}

func (h *AuthHandler) renderSignIn(c *gin.Context, status int, email, errMsg string) {
	templates.RenderTempl(c, status, templates.SignInPage(templates.SignInPageProps{
		BaseProps:      baseProps(c),
		Error:          errMsg,
		Email:          email,
		Target:         c.DefaultPostForm("target", c.Query("target")),
		OAuthProviders: h.providers,
	}))
}

func (h *AuthHandler) renderJoin(c *gin.Context, status int, form services.Registration, errMsg string) {
	templates.RenderTempl(c, status, templates.JoinPage(templates.JoinPageProps{
		BaseProps:      baseProps(c),
		Error:          errMsg,
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		Email:          form.Email,
		Target:         c.DefaultPostForm("target", c.Query("target")),
		OAuthProviders: h.providers,
	}))
}
