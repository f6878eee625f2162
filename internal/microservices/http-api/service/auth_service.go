package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"patentadmin/internal/config"
	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/microservices/http-api/repository"
	"patentadmin/internal/middleware/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTwoFactorRequired  = errors.New("two-factor code required")
	ErrInvalidTwoFactor   = errors.New("invalid two-factor code")
	ErrTwoFactorEnabled   = errors.New("two-factor already enabled")
	ErrTwoFactorDisabled  = errors.New("two-factor not enabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("session not found")
)

// Claims is the payload of an admin access token.
type Claims struct {
	AdminID   string `json:"admin_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// LoginContext carries request metadata recorded in the activity log.
type LoginContext struct {
	IPAddress string
	UserAgent string
}

type AuthService interface {
	Login(email, password, totpCode string, lc LoginContext) (*dto.LoginResponse, error)
	RefreshAccessToken(refreshToken string) (newAccessToken string, err error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*Claims, error)
	Authenticate(tokenString string) (*Claims, error)
	GetAdmin(adminID string) (*models.AdminUser, error)
	Enable2FA(adminID string) (*dto.Enable2FAResponse, error)
	Disable2FA(adminID, totpCode string) error
	ActiveSessions(adminID string) ([]models.AdminSession, error)
	RevokeSession(adminID, sessionID string) error
}

type authService struct {
	adminRepo        repository.AdminRepository
	sessionRepo      repository.SessionRepository
	activityRepo     repository.ActivityLogRepository
	jwtSecret        string
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	maxLoginAttempts int
	lockoutDuration  time.Duration
	logger           *slog.Logger
}

func NewAuthService(
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	activityRepo repository.ActivityLogRepository,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		adminRepo:        adminRepo,
		sessionRepo:      sessionRepo,
		activityRepo:     activityRepo,
		jwtSecret:        cfg.JWTSecret,
		accessTokenTTL:   cfg.AccessTokenTTL,
		refreshTokenTTL:  cfg.RefreshTokenTTL,
		maxLoginAttempts: cfg.MaxLoginAttempts,
		lockoutDuration:  cfg.LockoutDuration,
		logger:           logger,
	}
}

// Login authenticates an admin and returns access + refresh tokens.
func (s *authService) Login(email, password, totpCode string, lc LoginContext) (*dto.LoginResponse, error) {
	admin, err := s.adminRepo.FindByEmail(email)
	if err != nil {
		// Admin not found: dummy compare to mitigate timing attacks (always take same time)
		auth.VerifyPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e", password)
		return nil, ErrInvalidCredentials
	}

	if !admin.IsActive {
		return nil, ErrAccountDisabled
	}
	if admin.IsLocked(time.Now()) {
		return nil, ErrAccountLocked
	}

	// Verify password
	if err := auth.VerifyPassword(admin.Password, password); err != nil {
		s.recordAttempt(admin, false, lc)
		return nil, ErrInvalidCredentials
	}

	// Second factor, when enabled on the account
	if admin.TwoFactorEnabled {
		if totpCode == "" {
			return nil, ErrTwoFactorRequired
		}
		if !totp.Validate(totpCode, admin.TwoFactorSecret) {
			s.recordAttempt(admin, false, lc)
			return nil, ErrInvalidTwoFactor
		}
	}

	session := &models.AdminSession{
		ID:           uuid.New().String(),
		AdminID:      admin.ID,
		RefreshToken: uuid.New().String(), // opaque UUID as refresh token
		IPAddress:    lc.IPAddress,
		UserAgent:    lc.UserAgent,
		IsActive:     true,
		ExpiresAt:    time.Now().Add(s.refreshTokenTTL),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	accessToken, err := s.generateAccessToken(admin, session.ID)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(admin, true, lc)

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTokenTTL.Seconds()),
		Admin:        dto.AdminProfileFrom(admin),
	}, nil
}

func (s *authService) generateAccessToken(admin *models.AdminUser, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		AdminID:   admin.ID,
		Email:     admin.Email,
		Role:      admin.Role,
		SessionID: sessionID,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// recordAttempt updates the lockout counters and writes an activity log row.
// Logging failures here must never fail the login path.
func (s *authService) recordAttempt(admin *models.AdminUser, success bool, lc LoginContext) {
	var err error
	if success {
		err = s.adminRepo.RecordLoginSuccess(admin.ID, time.Now())
	} else {
		err = s.adminRepo.RecordLoginFailure(admin.ID, s.maxLoginAttempts, s.lockoutDuration)
	}
	if err != nil {
		s.logger.Error("failed to record login attempt", "admin_id", admin.ID, "error", err)
	}

	details, _ := json.Marshal(map[string]any{"success": success})
	logErr := s.activityRepo.Create(context.Background(), &models.ActivityLog{
		AdminID:      admin.ID,
		Action:       "login_attempt",
		ResourceType: "auth",
		Details:      string(details),
		IPAddress:    lc.IPAddress,
		Success:      success,
	})
	if logErr != nil {
		s.logger.Error("failed to write activity log", "admin_id", admin.ID, "error", logErr)
	}
}

func (s *authService) RefreshAccessToken(refreshTokenString string) (string, error) {
	session, err := s.sessionRepo.FindByRefreshToken(refreshTokenString)
	if err != nil {
		return "", ErrInvalidToken
	}

	if !session.IsActive || time.Now().After(session.ExpiresAt) {
		return "", ErrInvalidToken
	}

	admin, err := s.adminRepo.FindByID(session.AdminID)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !admin.IsActive {
		return "", ErrAccountDisabled
	}

	return s.generateAccessToken(admin, session.ID)
}

func (s *authService) Logout(refreshTokenString string) error {
	session, err := s.sessionRepo.FindByRefreshToken(refreshTokenString)
	if err != nil {
		// Nothing to revoke; treat as success to avoid token fishing
		return nil
	}
	return s.sessionRepo.Revoke(session.ID)
}

// ValidateToken parses and verifies the JWT signature and expiry only.
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates the token and checks the account and the session
// behind it are still live. Used by the API middleware and the realtime
// handshake.
func (s *authService) Authenticate(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.FindByID(claims.AdminID)
	if err != nil || !admin.IsActive {
		return nil, ErrInvalidToken
	}

	if claims.SessionID != "" {
		active, err := s.sessionRepo.IsActive(claims.SessionID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

func (s *authService) GetAdmin(adminID string) (*models.AdminUser, error) {
	return s.adminRepo.FindByID(adminID)
}

func (s *authService) Enable2FA(adminID string) (*dto.Enable2FAResponse, error) {
	admin, err := s.adminRepo.FindByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin.TwoFactorEnabled {
		return nil, ErrTwoFactorEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Patent AI Admin",
		AccountName: admin.Email,
	})
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.SetTwoFactor(adminID, true, key.Secret()); err != nil {
		return nil, err
	}

	return &dto.Enable2FAResponse{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
	}, nil
}

func (s *authService) Disable2FA(adminID, totpCode string) error {
	admin, err := s.adminRepo.FindByID(adminID)
	if err != nil {
		return err
	}
	if !admin.TwoFactorEnabled {
		return ErrTwoFactorDisabled
	}
	if !totp.Validate(totpCode, admin.TwoFactorSecret) {
		return ErrInvalidTwoFactor
	}
	return s.adminRepo.SetTwoFactor(adminID, false, "")
}

func (s *authService) ActiveSessions(adminID string) ([]models.AdminSession, error) {
	return s.sessionRepo.FindActiveByAdminID(adminID)
}

// RevokeSession revokes one of the caller's own sessions.
func (s *authService) RevokeSession(adminID, sessionID string) error {
	sessions, err := s.sessionRepo.FindActiveByAdminID(adminID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			return s.sessionRepo.Revoke(sessionID)
		}
	}
	return ErrSessionNotFound
}
