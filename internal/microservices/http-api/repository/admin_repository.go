package repository

import (
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// AdminRepository defines the interface for admin account data operations.
type AdminRepository interface {
	Create(admin *models.AdminUser) error
	FindByID(id string) (*models.AdminUser, error)
	FindByEmail(email string) (*models.AdminUser, error)
	Update(admin *models.AdminUser) error
	RecordLoginSuccess(id string, at time.Time) error
	RecordLoginFailure(id string, maxAttempts int, lockFor time.Duration) error
	SetTwoFactor(id string, enabled bool, secret string) error
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new instance of AdminRepository in a GORM implementation
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(admin *models.AdminUser) error {
	return r.db.Create(admin).Error
}

func (r *adminRepository) FindByID(id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	// return nil on error to avoid handing back a zero-value struct
	if err := r.db.First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByEmail(email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) Update(admin *models.AdminUser) error {
	return r.db.Save(admin).Error
}

func (r *adminRepository) RecordLoginSuccess(id string, at time.Time) error {
	return r.db.Model(&models.AdminUser{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login":            at,
		}).Error
}

// RecordLoginFailure bumps the failure counter and locks the account once the
// counter reaches maxAttempts.
func (r *adminRepository) RecordLoginFailure(id string, maxAttempts int, lockFor time.Duration) error {
	return r.db.Model(&models.AdminUser{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
			"locked_until": gorm.Expr(
				"CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE locked_until END",
				maxAttempts, time.Now().Add(lockFor),
			),
		}).Error
}

func (r *adminRepository) SetTwoFactor(id string, enabled bool, secret string) error {
	return r.db.Model(&models.AdminUser{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"two_factor_enabled": enabled,
			"two_factor_secret":  secret,
		}).Error
}
