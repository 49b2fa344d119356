// README: Caller identity middleware.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/types"
)

const userIDKey = "caller_user_id"

// TODO(auth): Replace header-based identity with Firebase ID token verification
// once the mobile clients ship token refresh.

// RequireUser extracts the caller from the X-User-ID header and aborts
// with 401 when it is missing.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		c.Set(userIDKey, types.ID(id))
		c.Next()
	}
}

// UserID returns the caller set by RequireUser.
func UserID(c *gin.Context) types.ID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(types.ID); ok {
			return id
		}
	}
	return ""
}
