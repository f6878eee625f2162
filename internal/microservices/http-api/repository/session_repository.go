package repository

import (
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// SessionRepository defines the interface for admin session operations.
type SessionRepository interface {
	Create(session *models.AdminSession) error
	FindByRefreshToken(token string) (*models.AdminSession, error)
	FindActiveByAdminID(adminID string) ([]models.AdminSession, error)
	IsActive(sessionID string) (bool, error)
	Revoke(sessionID string) error
	RevokeAllForAdmin(adminID string) (int64, error)
	Delete(sessionID string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.AdminSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindByRefreshToken(token string) (*models.AdminSession, error) {
	var session models.AdminSession
	if err := r.db.Where("refresh_token = ?", token).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActiveByAdminID(adminID string) ([]models.AdminSession, error) {
	var sessions []models.AdminSession
	err := r.db.
		Where("admin_id = ? AND is_active = ? AND expires_at > ?", adminID, true, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) IsActive(sessionID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.AdminSession{}).
		Where("id = ? AND is_active = ? AND expires_at > ?", sessionID, true, time.Now()).
		Count(&count).Error
	return count > 0, err
}

func (r *sessionRepository) Revoke(sessionID string) error {
	return r.db.Model(&models.AdminSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false).Error
}

func (r *sessionRepository) RevokeAllForAdmin(adminID string) (int64, error) {
	res := r.db.Model(&models.AdminSession{}).
		Where("admin_id = ? AND is_active = ?", adminID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) Delete(sessionID string) error {
	return r.db.Delete(&models.AdminSession{}, "id = ?", sessionID).Error
}
