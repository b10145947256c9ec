package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const metricsRealm = `Bearer realm="fedlink metrics"`

// MetricsAuthMiddleware guards the Prometheus endpoint with a static bearer
// token. An empty token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || provided == "" {
			rejectMetrics(c, "Bearer token required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			rejectMetrics(c, "Invalid token")
			return
		}

		c.Next()
	}
}

func rejectMetrics(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", metricsRealm)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
}
