package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, log *models.ActivityLog) error
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
	FindByAdminID(ctx context.Context, adminID string, limit int) ([]models.ActivityLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepository) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *activityLogRepository) FindByAdminID(ctx context.Context, adminID string, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *activityLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityLog{})
	return res.RowsAffected, res.Error
}
