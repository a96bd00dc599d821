package http

import (
	"github.com/gin-gonic/gin"

	"github.com/oxydem/authgate/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService) *gin.Engine {
	router := gin.Default()

	// Create handlers
	handlers := NewAuthHandlers(authService)

	// Public auth routes
	router.POST("/login", handlers.Login)
	router.POST("/two-factor/verify", handlers.VerifyTwoFactor)

	// Protected routes
	api := router.Group("/")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/check-token", handlers.CheckToken)
		api.GET("/user", handlers.User)
		api.POST("/two-factor/enable", handlers.EnableTwoFactor)
		api.POST("/two-factor/disable", handlers.DisableTwoFactor)
		api.POST("/two-factor/regenerate-recovery-codes", handlers.RegenerateRecoveryCodes)
		api.POST("/two-factor/reset-two-factor/:userId", handlers.ResetTwoFactor)
	}

	return router
}
