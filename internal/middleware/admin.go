package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrivilegedKey marks a request that presented the admin token.
const PrivilegedKey = "privileged"

// AdminDetect flags the request as privileged when the X-Admin-Token
// header matches the configured token. It never rejects; ownership
// checks downstream decide what privilege unlocks.
func AdminDetect(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-Admin-Token")
		if token != "" && header != "" && subtle.ConstantTimeCompare([]byte(header), []byte(token)) == 1 {
			c.Set(PrivilegedKey, true)
		}
		c.Next()
	}
}

// RequireAdmin aborts requests that are not privileged.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(PrivilegedKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "admin token required"})
			return
		}
		c.Next()
	}
}
