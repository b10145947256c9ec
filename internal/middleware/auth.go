package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/fedlink/internal/models"
	"github.com/go-authgate/fedlink/internal/services"
	"github.com/go-authgate/fedlink/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserLoader looks up the signed-in user by ID
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TargetRememberer stores the current URL as the post-sign-in destination
type TargetRememberer interface {
	RememberTarget(c *gin.Context)
}

// LoadUser resolves the session user and stores it in the request context.
// Sessions pointing at a deleted or disabled user are signed out.
func LoadUser(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := session.UserID(c)
		if userID == "" {
			c.Next()
			return
		}

		user, err := loader.GetUserByID(c.Request.Context(), userID)
		switch {
		case err == nil && user.IsEnabled():
			c.Set("user", user)
			c.Request = c.Request.WithContext(models.SetUserContext(c.Request.Context(), user))
		case err == nil, errors.Is(err, services.ErrUserNotFound):
			sess := sessions.Default(c)
			sess.Delete(session.SessionUserID)
			if err := sess.Save(); err != nil {
				log.Printf("[Session] Failed to drop stale user_id=%s: %v", userID, err)
			}
		default:
			// Store errors keep the session signed in
			log.Printf("[Session] Failed to load user_id=%s: %v", userID, err)
		}

		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the sign-in page after
// remembering where they were going. Use after LoadUser.
func RequireAuth(targets TargetRememberer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if models.GetUserFromContext(c) == nil {
			targets.RememberTarget(c)
			c.Redirect(http.StatusFound, "/sign-in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionIdleTimeout signs out sessions that have been inactive longer than
// timeout. A zero timeout disables the check.
func SessionIdleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		sess := sessions.Default(c)
		if sess.Get(session.SessionUserID) == nil {
			c.Next()
			return
		}

		now := time.Now()
		if last, ok := sess.Get(session.SessionLastActivity).(int64); ok &&
			now.Sub(time.Unix(last, 0)) > timeout {
			sess.Clear()
			_ = sess.Save()
			c.Redirect(http.StatusFound, "/sign-in?error=session_timeout")
			c.Abort()
			return
		}

		sess.Set(session.SessionLastActivity, now.Unix())
		if err := sess.Save(); err != nil {
			log.Printf("[Session] Failed to update last activity: %v", err)
		}
		c.Next()
	}
}
