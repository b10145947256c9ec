package middleware

import (
	"github.com/go-authgate/fedlink/internal/util"

	"github.com/gin-gonic/gin"
)

// IPMiddleware stores the client IP in the request context so services can
// log it without a gin dependency
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("client_ip", c.ClientIP())
		c.Request = c.Request.WithContext(util.SetIPContext(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}
