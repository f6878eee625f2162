package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// AlertRepository stores system alerts. The alert producer polls
// ActiveCreatedAfter with its watermark.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.SystemAlert) error
	FindByID(ctx context.Context, id string) (*models.SystemAlert, error)
	ActiveCreatedAfter(ctx context.Context, since time.Time) ([]models.SystemAlert, error)
	List(ctx context.Context, status string, limit int) ([]models.SystemAlert, error)
	Resolve(ctx context.Context, id string) error
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.SystemAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id string) (*models.SystemAlert, error) {
	var alert models.SystemAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// ActiveCreatedAfter returns active alerts created strictly after since,
// newest first.
func (r *alertRepository) ActiveCreatedAfter(ctx context.Context, since time.Time) ([]models.SystemAlert, error) {
	var alerts []models.SystemAlert
	err := r.db.WithContext(ctx).
		Where("created_at > ? AND status = ?", since, models.AlertStatusActive).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *alertRepository) List(ctx context.Context, status string, limit int) ([]models.SystemAlert, error) {
	query := r.db.WithContext(ctx).Model(&models.SystemAlert{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit <= 0 {
		limit = 100
	}

	var alerts []models.SystemAlert
	err := query.Order("created_at DESC").Limit(limit).Find(&alerts).Error
	return alerts, err
}

func (r *alertRepository) Resolve(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.SystemAlert{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      models.AlertStatusResolved,
			"resolved_at": now,
		}).Error
}
