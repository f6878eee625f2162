package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/service"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Login(req.Email, req.Password, req.TOTPCode, service.LoginContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, service.ErrTwoFactorRequired):
		// Not a failure: the client should re-submit with the TOTP code
		c.JSON(http.StatusOK, gin.H{"requires_2fa": true})
	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "account temporarily locked"})
	case errors.Is(err, service.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidTwoFactor):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
	}
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   1800, // 30 minutes in seconds
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// always return success response to avoid token fishing
	_ = h.authService.Logout(req.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	adminID := c.GetString("adminID")
	admin, err := h.authService.GetAdmin(adminID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
		return
	}
	c.JSON(http.StatusOK, dto.AdminProfileFrom(admin))
}

func (h *AuthHandler) Enable2FA(c *gin.Context) {
	adminID := c.GetString("adminID")

	resp, err := h.authService.Enable2FA(adminID)
	if errors.Is(err, service.ErrTwoFactorEnabled) {
		c.JSON(http.StatusConflict, gin.H{"error": "two-factor already enabled"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enable two-factor"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Disable2FA(c *gin.Context) {
	var req dto.Disable2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID := c.GetString("adminID")
	err := h.authService.Disable2FA(adminID, req.TOTPCode)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "two-factor disabled"})
	case errors.Is(err, service.ErrTwoFactorDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": "two-factor not enabled"})
	case errors.Is(err, service.ErrInvalidTwoFactor):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid two-factor code"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to disable two-factor"})
	}
}

func (h *AuthHandler) ListSessions(c *gin.Context) {
	adminID := c.GetString("adminID")
	sessions, err := h.authService.ActiveSessions(adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *AuthHandler) RevokeSession(c *gin.Context) {
	adminID := c.GetString("adminID")
	sessionID := c.Param("session_id")

	err := h.authService.RevokeSession(adminID, sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session revoked"})
}
