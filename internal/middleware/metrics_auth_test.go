package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testToken = "test-secret-token-123"

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{name: "no token configured", token: "", wantStatus: http.StatusOK},
		{name: "valid token", token: testToken, header: "Bearer " + testToken, wantStatus: http.StatusOK},
		{
			name: "wrong token", token: testToken, header: "Bearer wrong-token",
			wantStatus: http.StatusUnauthorized, wantMessage: "Invalid token",
		},
		{
			name: "missing header", token: testToken,
			wantStatus: http.StatusUnauthorized, wantMessage: "Bearer token required",
		},
		{
			name: "basic scheme", token: testToken, header: "Basic dGVzdDp0ZXN0",
			wantStatus: http.StatusUnauthorized, wantMessage: "Bearer token required",
		},
		{
			name: "empty bearer", token: testToken, header: "Bearer ",
			wantStatus: http.StatusUnauthorized, wantMessage: "Bearer token required",
		},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(MetricsAuthMiddleware(tt.token))
			r.GET("/metrics", func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "metrics", w.Body.String())
				return
			}
			assert.Contains(t, w.Body.String(), tt.wantMessage)
			assert.Equal(t, metricsRealm, w.Header().Get("WWW-Authenticate"))
		})
	}
}
