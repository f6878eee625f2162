package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"patentadmin/internal/config"
	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/middleware/auth"
)

// MockAdminRepository mocks repository.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(admin *models.AdminUser) error {
	args := m.Called(admin)
	return args.Error(0)
}

func (m *MockAdminRepository) FindByID(id string) (*models.AdminUser, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

func (m *MockAdminRepository) FindByEmail(email string) (*models.AdminUser, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

func (m *MockAdminRepository) Update(admin *models.AdminUser) error {
	args := m.Called(admin)
	return args.Error(0)
}

func (m *MockAdminRepository) RecordLoginSuccess(id string, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockAdminRepository) RecordLoginFailure(id string, maxAttempts int, lockFor time.Duration) error {
	args := m.Called(id, maxAttempts, lockFor)
	return args.Error(0)
}

func (m *MockAdminRepository) SetTwoFactor(id string, enabled bool, secret string) error {
	args := m.Called(id, enabled, secret)
	return args.Error(0)
}

// MockSessionRepository mocks repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(session *models.AdminSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByRefreshToken(token string) (*models.AdminSession, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminSession), args.Error(1)
}

func (m *MockSessionRepository) FindActiveByAdminID(adminID string) ([]models.AdminSession, error) {
	args := m.Called(adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdminSession), args.Error(1)
}

func (m *MockSessionRepository) IsActive(sessionID string) (bool, error) {
	args := m.Called(sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Revoke(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) RevokeAllForAdmin(adminID string) (int64, error) {
	args := m.Called(adminID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) Delete(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

// MockActivityLogRepository mocks repository.ActivityLogRepository
type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockActivityLogRepository) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityLog), args.Error(1)
}

func (m *MockActivityLogRepository) FindByAdminID(ctx context.Context, adminID string, limit int) ([]models.ActivityLog, error) {
	args := m.Called(ctx, adminID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityLog), args.Error(1)
}

func (m *MockActivityLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret-key-that-is-long-enough!",
		AccessTokenTTL:   30 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		MaxLoginAttempts: 5,
		LockoutDuration:  30 * time.Minute,
	}
}

func newTestAuthService(adminRepo *MockAdminRepository, sessionRepo *MockSessionRepository, activityRepo *MockActivityLogRepository) AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(adminRepo, sessionRepo, activityRepo, testConfig(), logger)
}

func testAdmin(t *testing.T) *models.AdminUser {
	t.Helper()
	hashed, err := auth.HashPassword("correct-horse")
	assert.NoError(t, err)
	return &models.AdminUser{
		ID:       "admin-123",
		Email:    "admin@example.com",
		Name:     "Test Admin",
		Password: hashed,
		Role:     "admin",
		IsActive: true,
	}
}

func TestLogin_Success(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	sessionRepo := new(MockSessionRepository)
	activityRepo := new(MockActivityLogRepository)
	svc := newTestAuthService(adminRepo, sessionRepo, activityRepo)

	admin := testAdmin(t)
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)
	adminRepo.On("RecordLoginSuccess", "admin-123", mock.Anything).Return(nil)
	sessionRepo.On("Create", mock.AnythingOfType("*models.AdminSession")).Return(nil)
	activityRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ActivityLog")).Return(nil)

	resp, err := svc.Login("admin@example.com", "correct-horse", "", LoginContext{IPAddress: "10.0.0.1"})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "admin-123", resp.Admin.ID)
	adminRepo.AssertExpectations(t)
	sessionRepo.AssertExpectations(t)
}

func TestLogin_WrongPasswordRecordsFailure(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	sessionRepo := new(MockSessionRepository)
	activityRepo := new(MockActivityLogRepository)
	svc := newTestAuthService(adminRepo, sessionRepo, activityRepo)

	admin := testAdmin(t)
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)
	adminRepo.On("RecordLoginFailure", "admin-123", 5, 30*time.Minute).Return(nil)
	activityRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ActivityLog")).Return(nil)

	_, err := svc.Login("admin@example.com", "wrong", "", LoginContext{})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	adminRepo.AssertExpectations(t)
}

func TestLogin_UnknownEmail(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	svc := newTestAuthService(adminRepo, new(MockSessionRepository), new(MockActivityLogRepository))

	adminRepo.On("FindByEmail", "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Login("nobody@example.com", "whatever", "", LoginContext{})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_LockedAccount(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	svc := newTestAuthService(adminRepo, new(MockSessionRepository), new(MockActivityLogRepository))

	admin := testAdmin(t)
	lockedUntil := time.Now().Add(10 * time.Minute)
	admin.LockedUntil = &lockedUntil
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)

	_, err := svc.Login("admin@example.com", "correct-horse", "", LoginContext{})

	assert.ErrorIs(t, err, ErrAccountLocked)
	adminRepo.AssertNotCalled(t, "RecordLoginFailure", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_DisabledAccount(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	svc := newTestAuthService(adminRepo, new(MockSessionRepository), new(MockActivityLogRepository))

	admin := testAdmin(t)
	admin.IsActive = false
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)

	_, err := svc.Login("admin@example.com", "correct-horse", "", LoginContext{})

	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLogin_TwoFactorRequired(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	svc := newTestAuthService(adminRepo, new(MockSessionRepository), new(MockActivityLogRepository))

	admin := testAdmin(t)
	admin.TwoFactorEnabled = true
	admin.TwoFactorSecret = "JBSWY3DPEHPK3PXP"
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)

	_, err := svc.Login("admin@example.com", "correct-horse", "", LoginContext{})

	assert.ErrorIs(t, err, ErrTwoFactorRequired)
}

func TestLogin_InvalidTwoFactorCode(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	activityRepo := new(MockActivityLogRepository)
	svc := newTestAuthService(adminRepo, new(MockSessionRepository), activityRepo)

	admin := testAdmin(t)
	admin.TwoFactorEnabled = true
	admin.TwoFactorSecret = "JBSWY3DPEHPK3PXP"
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)
	adminRepo.On("RecordLoginFailure", "admin-123", 5, 30*time.Minute).Return(nil)
	activityRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ActivityLog")).Return(nil)

	_, err := svc.Login("admin@example.com", "correct-horse", "000000", LoginContext{})

	assert.ErrorIs(t, err, ErrInvalidTwoFactor)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	sessionRepo := new(MockSessionRepository)
	activityRepo := new(MockActivityLogRepository)
	svc := newTestAuthService(adminRepo, sessionRepo, activityRepo)

	admin := testAdmin(t)
	adminRepo.On("FindByEmail", "admin@example.com").Return(admin, nil)
	adminRepo.On("RecordLoginSuccess", "admin-123", mock.Anything).Return(nil)
	sessionRepo.On("Create", mock.AnythingOfType("*models.AdminSession")).Return(nil)
	activityRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ActivityLog")).Return(nil)

	resp, err := svc.Login("admin@example.com", "correct-horse", "", LoginContext{})
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "admin-123", claims.AdminID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.SessionID)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(new(MockAdminRepository), new(MockSessionRepository), new(MockActivityLogRepository))

	_, err := svc.ValidateToken("not-a-jwt")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessToken_ExpiredSession(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	svc := newTestAuthService(new(MockAdminRepository), sessionRepo, new(MockActivityLogRepository))

	sessionRepo.On("FindByRefreshToken", "stale-token").Return(&models.AdminSession{
		ID:        "session-1",
		AdminID:   "admin-123",
		IsActive:  true,
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)

	_, err := svc.RefreshAccessToken("stale-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessToken_Success(t *testing.T) {
	adminRepo := new(MockAdminRepository)
	sessionRepo := new(MockSessionRepository)
	svc := newTestAuthService(adminRepo, sessionRepo, new(MockActivityLogRepository))

	admin := testAdmin(t)
	sessionRepo.On("FindByRefreshToken", "good-token").Return(&models.AdminSession{
		ID:        "session-1",
		AdminID:   "admin-123",
		IsActive:  true,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	adminRepo.On("FindByID", "admin-123").Return(admin, nil)

	accessToken, err := svc.RefreshAccessToken("good-token")

	assert.NoError(t, err)
	claims, err := svc.ValidateToken(accessToken)
	assert.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestRevokeSession_NotOwnSession(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	svc := newTestAuthService(new(MockAdminRepository), sessionRepo, new(MockActivityLogRepository))

	sessionRepo.On("FindActiveByAdminID", "admin-123").Return([]models.AdminSession{
		{ID: "session-1", AdminID: "admin-123"},
	}, nil)

	err := svc.RevokeSession("admin-123", "someone-elses-session")

	assert.ErrorIs(t, err, ErrSessionNotFound)
	sessionRepo.AssertNotCalled(t, "Revoke", mock.Anything)
}
