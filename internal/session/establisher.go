package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/go-authgate/fedlink/internal/core"
	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys
const (
	SessionUserID       = "user_id"
	SessionLastActivity = "last_activity"
	SessionSignedInAt   = "signed_in_at"
	SessionAuthSource   = "auth_source"
)

const (
	// TargetCookie names the post-sign-in destination set by pages that
	// require authentication
	TargetCookie = "target"

	// DefaultTarget is the authenticated landing route
	DefaultTarget = "/me"
)

// ErrSignIn is returned when the session could not be established after the
// account was already resolved and persisted
var ErrSignIn = errors.New("failed to establish session")

// targetDenylist keeps sign-in and registration pages out of redirect targets
var targetDenylist = regexp.MustCompile(`(?i)join|sign-?in`)

// Establisher writes and clears the signed-in state of a browser session
type Establisher struct {
	baseURL string
	metrics core.Recorder
}

func NewEstablisher(baseURL string, m core.Recorder) *Establisher {
	return &Establisher{baseURL: baseURL, metrics: m}
}

// SignIn records user as the signed-in user. authSource is "local" or the
// provider name.
func (e *Establisher) SignIn(c *gin.Context, user *models.User, authSource string) error {
	if user == nil || user.ID == "" {
		e.metrics.RecordLogin(authSource, false)
		return fmt.Errorf("%w: no user", ErrSignIn)
	}

	now := time.Now().Unix()
	session := sessions.Default(c)
	session.Set(SessionUserID, user.ID)
	session.Set(SessionAuthSource, authSource)
	session.Set(SessionSignedInAt, now)
	session.Set(SessionLastActivity, now)
	if err := session.Save(); err != nil {
		// The request must not see a half-established session
		session.Delete(SessionUserID)
		session.Delete(SessionAuthSource)
		session.Delete(SessionSignedInAt)
		session.Delete(SessionLastActivity)
		e.metrics.RecordLogin(authSource, false)
		log.Printf("[Session] Failed to save session for user=%s: %v", user.ID, err)
		return fmt.Errorf("%w: %v", ErrSignIn, err)
	}

	e.metrics.RecordLogin(authSource, true)
	return nil
}

// SignOut clears every key of the session, including any pending sign-in
func (e *Establisher) SignOut(c *gin.Context) error {
	session := sessions.Default(c)
	if signedInAt, ok := session.Get(SessionSignedInAt).(int64); ok {
		e.metrics.RecordLogout(time.Since(time.Unix(signedInAt, 0)))
	}

	session.Clear()
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// UserID returns the signed-in user ID, or "" when anonymous
func UserID(c *gin.Context) string {
	id, _ := sessions.Default(c).Get(SessionUserID).(string)
	return id
}

// Target returns where to send the user after signing in: the submitted
// value, else the target cookie, else DefaultTarget. Values pointing back at
// the sign-in or join pages, or off-site, are ignored.
func (e *Establisher) Target(c *gin.Context, submitted string) string {
	if e.acceptable(submitted) {
		return submitted
	}
	if cookie, err := c.Cookie(TargetCookie); err == nil && e.acceptable(cookie) {
		return cookie
	}
	return DefaultTarget
}

// RememberTarget stores the current request URL as the post-sign-in target
func (e *Establisher) RememberTarget(c *gin.Context) {
	target := c.Request.URL.RequestURI()
	if !e.acceptable(target) {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TargetCookie, target, 600, "/", "", false, true)
}

func (e *Establisher) acceptable(target string) bool {
	return target != "" &&
		!targetDenylist.MatchString(target) &&
		util.IsRedirectSafe(target, e.baseURL)
}
