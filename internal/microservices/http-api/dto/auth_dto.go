package dto

import "patentadmin/internal/microservices/http-api/models"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"` // required only when 2FA is enabled
}

type AdminProfile struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

func AdminProfileFrom(admin *models.AdminUser) AdminProfile {
	return AdminProfile{
		ID:               admin.ID,
		Email:            admin.Email,
		Name:             admin.Name,
		Role:             admin.Role,
		TwoFactorEnabled: admin.TwoFactorEnabled,
	}
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	Admin        AdminProfile `json:"admin"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type Enable2FAResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

type Disable2FARequest struct {
	TOTPCode string `json:"totp_code" binding:"required"`
}
