package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/go-authgate/fedlink/internal/templates"
	"github.com/go-authgate/fedlink/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenKey    = "csrf_token"
	csrfFormField   = "csrf_token"
	csrfHeaderField = "X-CSRF-Token"
	csrfTokenBytes  = 32
)

// CSRFMiddleware issues a per-session token and checks it on POST requests
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		token, _ := sess.Get(csrfTokenKey).(string)
		if token == "" {
			var err error
			token, err = util.RandomURLToken(csrfTokenBytes)
			if err == nil {
				sess.Set(csrfTokenKey, token)
				err = sess.Save()
			}
			if err != nil {
				log.Printf("[CSRF] Failed to issue token: %v", err)
				templates.RenderTempl(c, http.StatusInternalServerError, templates.ErrorPage(templates.ErrorPageProps{
					Error:   "Something went wrong",
					Message: "Please refresh the page and try again.",
				}))
				c.Abort()
				return
			}
		}

		c.Set(csrfTokenKey, token)

		if c.Request.Method == http.MethodPost {
			submitted := c.PostForm(csrfFormField)
			if submitted == "" {
				submitted = c.GetHeader(csrfHeaderField)
			}
			if subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				templates.RenderTempl(c, http.StatusForbidden, templates.ErrorPage(templates.ErrorPageProps{
					Error:   "Invalid request",
					Message: "Your form expired. Please refresh the page and try again.",
				}))
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// GetCSRFToken retrieves the CSRF token from the context
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfTokenKey); exists {
		if tokenStr, ok := token.(string); ok {
			return tokenStr
		}
	}
	return ""
}
