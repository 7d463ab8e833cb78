package middleware

import (
	"net/http"
	"strings"

	"bookly/models"
	"bookly/utils"

	"github.com/gin-gonic/gin"
)

// IdentityMiddleware resolves the caller from a Bearer token and stores the
// identity in the context. Tokens are issued elsewhere; only the signature,
// expiry and claims are checked here.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		identity, err := utils.IdentityFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "details": err.Error()})
			return
		}

		c.Set(utils.ContextIdentityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by IdentityMiddleware.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(utils.ContextIdentityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
