package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stationlab/weatherapi/auth"
	"github.com/stationlab/weatherapi/models"
)

const userKey = "user"

// TokenFromHeader reads the session token from header, accepting an
// optional "Bearer " prefix.
func TokenFromHeader(c *gin.Context, header string) string {
	value := strings.TrimSpace(c.GetHeader(header))
	return strings.TrimSpace(strings.TrimPrefix(value, "Bearer "))
}

// AuthMiddleware admits requests whose token belongs to a user holding one
// of roles. It is built per route, so each route declares its own roles.
func AuthMiddleware(guard *auth.Guard, header string, roles ...models.Role) gin.HandlerFunc {
	allowed := auth.Roles(roles...)
	return func(c *gin.Context) {
		user, err := guard.Authorize(c.Request.Context(), TokenFromHeader(c, header), allowed)
		switch {
		case err == nil:
			c.Set(userKey, user)
			c.Next()
		case errors.Is(err, auth.ErrMissingCredential):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication key missing"})
		case errors.Is(err, auth.ErrInvalidCredential):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication key invalid"})
		case errors.Is(err, auth.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access forbidden"})
		default:
			log.Printf("[%s] authorize: %v", RequestID(c), err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
	}
}

// CurrentUser returns the user resolved by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
