package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// MetricsRepository stores and reads recorded metric samples. The realtime
// metrics producer polls RecentMetrics, so this one takes a context.
type MetricsRepository interface {
	Record(ctx context.Context, metric *models.SystemMetric) error
	RecentMetrics(ctx context.Context, window time.Duration, limit int) ([]models.SystemMetric, error)
	History(ctx context.Context, metricType string, hours int, limit int) ([]models.SystemMetric, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type metricsRepository struct {
	db *gorm.DB
}

func NewMetricsRepository(db *gorm.DB) MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) Record(ctx context.Context, metric *models.SystemMetric) error {
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(metric).Error
}

// RecentMetrics returns the newest samples inside the window, newest first.
func (r *metricsRepository) RecentMetrics(ctx context.Context, window time.Duration, limit int) ([]models.SystemMetric, error) {
	var metrics []models.SystemMetric
	err := r.db.WithContext(ctx).
		Where("timestamp >= ?", time.Now().Add(-window)).
		Order("timestamp DESC").
		Limit(limit).
		Find(&metrics).Error
	return metrics, err
}

func (r *metricsRepository) History(ctx context.Context, metricType string, hours int, limit int) ([]models.SystemMetric, error) {
	query := r.db.WithContext(ctx).
		Where("timestamp >= ?", time.Now().Add(-time.Duration(hours)*time.Hour))
	if metricType != "" {
		query = query.Where("metric_type = ?", metricType)
	}
	if limit <= 0 {
		limit = 1000
	}

	var metrics []models.SystemMetric
	err := query.Order("timestamp DESC").Limit(limit).Find(&metrics).Error
	return metrics, err
}

func (r *metricsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.SystemMetric{})
	return res.RowsAffected, res.Error
}
