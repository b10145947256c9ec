package models

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey struct{}

var userContextKey = contextKey{}

// SetUserContext returns a copy of ctx carrying user. A nil user is not stored.
func SetUserContext(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the signed-in user stored by SetUserContext or
// by the LoadUser middleware under the gin "user" key.
func GetUserFromContext(ctx context.Context) *User {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if userVal, exists := ginCtx.Get("user"); exists {
			if user, ok := userVal.(*User); ok {
				return user
			}
		}
		if ginCtx.Request == nil {
			return nil
		}
		ctx = ginCtx.Request.Context()
	}
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// GetUserIDFromContext returns the signed-in user's ID, or ""
func GetUserIDFromContext(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}
