package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oxydem/authgate/core"
	"github.com/oxydem/authgate/service"
)

const userContextKey = "authUser"

// AuthMiddleware creates middleware that validates bearer tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		// Extract the token
		token := auth[7:]

		// Validate the token
		user, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// Set the user in the context
		c.Set(userContextKey, user)

		c.Next()
	}
}

func currentUser(c *gin.Context) *core.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*core.User)
	if !ok {
		return nil
	}
	return user
}
