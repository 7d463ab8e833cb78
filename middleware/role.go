package middleware

import (
	"net/http"

	"bookly/models"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects callers whose role is not one of roles. It must run
// after IdentityMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "This endpoint is not available for role '" + string(identity.Role) + "'",
		})
	}
}
