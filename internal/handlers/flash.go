package handlers

import (
	"log"

	"github.com/go-authgate/fedlink/internal/middleware"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/templates"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// User-facing messages
const (
	msgProviderFailed  = "Sorry, there was an issue signing you in, please try again."
	msgConfirmRequired = "Please enter a name & email."
	msgEmailConflict   = "There's already an account with that email address, please sign-in instead."
	msgLinkConflict    = "That %s account is already linked to another user."
	msgLookupFailed    = "Sorry, there was an error processing your information, please try again."
	msgSaveFailed      = "Sorry, there was an error processing your account, please try again."
	msgSignInFailed    = "Your account is ready but we couldn't sign you in. Please try signing in again."
	msgAccountDisabled = "Your account has been disabled."
	msgBadCredentials  = "Sorry, that email and password combo are not valid."
	msgJoinRequired    = "Please enter your name, email and password."
	msgInvalidEmail    = "Please enter a valid email address."
	msgSessionTimeout  = "Your session has expired, please sign in again."
	msgUnknownProvider = "That sign-in provider is not available."
	msgSomethingBroken = "Something went wrong"
	msgTryAgainShortly = "Please try again in a moment."
)

// addFlash queues a message for the next rendered page and saves the session
func addFlash(c *gin.Context, message string) {
	sess := sessions.Default(c)
	sess.AddFlash(message)
	if err := sess.Save(); err != nil {
		log.Printf("[Session] Failed to save flash: %v", err)
	}
}

// popFlashes returns and clears the queued messages
func popFlashes(c *gin.Context) []string {
	sess := sessions.Default(c)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(); err != nil {
		log.Printf("[Session] Failed to clear flashes: %v", err)
	}

	flashes := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			flashes = append(flashes, s)
		}
	}
	return flashes
}

func baseProps(c *gin.Context) templates.BaseProps {
	return templates.BaseProps{
		CSRFToken: middleware.GetCSRFToken(c),
		Flashes:   popFlashes(c),
	}
}

func navbarProps(c *gin.Context, user *models.User) templates.NavbarProps {
	if user == nil {
		return templates.NavbarProps{CSRFToken: middleware.GetCSRFToken(c)}
	}
	return templates.NavbarProps{
		CSRFToken: middleware.GetCSRFToken(c),
		SignedIn:  true,
		FullName:  user.FullName(),
		AvatarURL: user.AvatarURL(),
	}
}

func renderError(c *gin.Context, status int, title, message string) {
	templates.RenderTempl(c, status, templates.ErrorPage(templates.ErrorPageProps{
		BaseProps: templates.BaseProps{CSRFToken: middleware.GetCSRFToken(c)},
		Navbar:    navbarProps(c, models.GetUserFromContext(c)),
		Error:     title,
		Message:   message,
	}))
}
