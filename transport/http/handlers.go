package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oxydem/authgate/core"
	"github.com/oxydem/authgate/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Login handles the password login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		var rateErr *core.RateLimitError
		switch {
		case errors.As(err, &rateErr):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"message":     rateErr.Error(),
				"retry_after": int(rateErr.RetryAfter.Seconds()),
			})
		case errors.Is(err, core.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "The provided credentials do not match our records."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	if result.TwoFactorRequired {
		c.JSON(http.StatusOK, gin.H{
			"message":     "2FA verification required.",
			"require_2fa": true,
			"session_id":  result.SessionID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful.",
		"token":      result.Token,
		"token_type": "Bearer",
		"user":       userPayload(result.User),
	})
}

// VerifyTwoFactor completes a pending login with a TOTP or recovery code
func (h *AuthHandlers) VerifyTwoFactor(c *gin.Context) {
	var req struct {
		SessionID    string `json:"session_id" binding:"required"`
		Code         string `json:"two_factor_code"`
		RecoveryCode string `json:"two_factor_recovery_code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authService.VerifyTwoFactor(c.Request.Context(), req.SessionID, req.Code, req.RecoveryCode)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidOrExpiredSession):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired 2FA session."})
		case errors.Is(err, core.ErrTwoFactorNotEnabled):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor authentication is not enabled for this user."})
		case errors.Is(err, core.ErrInvalidCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code."})
		case errors.Is(err, core.ErrInvalidRecoveryCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid recovery code."})
		case errors.Is(err, core.ErrMissingFactor):
			c.JSON(http.StatusBadRequest, gin.H{"error": "2FA or recovery code is required."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	message := "Login successful."
	if req.Code == "" && req.RecoveryCode != "" {
		message = "Recovery code verified successfully."
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"token":      result.Token,
		"token_type": "Bearer",
		"user":       userPayload(result.User),
	})
}

// EnableTwoFactor provisions a TOTP secret and recovery codes for the
// authenticated user
func (h *AuthHandlers) EnableTwoFactor(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	enrollment, err := h.authService.EnableTwoFactor(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "2FA enabled successfully.",
		"qr_code_url":      enrollment.ProvisioningURI,
		"manual_entry_key": enrollment.SecretBase32,
		"recovery_codes":   enrollment.RecoveryCodes,
	})
}

// DisableTwoFactor removes 2FA from the authenticated user
func (h *AuthHandlers) DisableTwoFactor(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	if err := h.authService.DisableTwoFactor(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled successfully."})
}

// RegenerateRecoveryCodes replaces the authenticated user's recovery
// code set
func (h *AuthHandlers) RegenerateRecoveryCodes(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	codes, err := h.authService.RegenerateRecoveryCodes(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, core.ErrTwoFactorNotEnabled) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Two-factor authentication is not enabled for this user."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate recovery codes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                   "Recovery codes regenerated successfully.",
		"two_factor_recovery_codes": codes,
	})
}

// ResetTwoFactor strips 2FA from an arbitrary user by ID
func (h *AuthHandlers) ResetTwoFactor(c *gin.Context) {
	userID := c.Param("userId")

	err := h.authService.ResetTwoFactor(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA reset successfully."})
}

// CheckToken confirms the bearer token is valid
func (h *AuthHandlers) CheckToken(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  userPayload(user),
	})
}

// User returns the authenticated user's profile
func (h *AuthHandlers) User(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

func userPayload(user *core.User) gin.H {
	return gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"name":               user.Name,
		"two_factor_enabled": user.TwoFactorEnabled(),
	}
}
