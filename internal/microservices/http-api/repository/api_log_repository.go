package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// APILogListFilter narrows an API log listing.
type APILogListFilter struct {
	Path       string
	StatusCode int
	ErrorsOnly bool
	Since      *time.Time
	Offset     int
	Limit      int
}

// ErrorBucket groups error counts per path for error analysis.
type ErrorBucket struct {
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	Count      int64  `json:"count"`
}

type APILogRepository interface {
	Create(ctx context.Context, log *models.APILog) error
	List(ctx context.Context, filter APILogListFilter) ([]models.APILog, int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	ErrorCountSince(ctx context.Context, since time.Time) (int64, error)
	AvgResponseTimeSince(ctx context.Context, since time.Time) (float64, error)
	ErrorBucketsSince(ctx context.Context, since time.Time) ([]ErrorBucket, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type apiLogRepository struct {
	db *gorm.DB
}

func NewAPILogRepository(db *gorm.DB) APILogRepository {
	return &apiLogRepository{db: db}
}

func (r *apiLogRepository) Create(ctx context.Context, log *models.APILog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *apiLogRepository) List(ctx context.Context, filter APILogListFilter) ([]models.APILog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.APILog{})

	if filter.Path != "" {
		query = query.Where("path = ?", filter.Path)
	}
	if filter.StatusCode != 0 {
		query = query.Where("status_code = ?", filter.StatusCode)
	}
	if filter.ErrorsOnly {
		query = query.Where("status_code >= ?", 400)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var logs []models.APILog
	err := query.Order("timestamp DESC").Offset(filter.Offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}

func (r *apiLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.APILog{}).
		Where("timestamp >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *apiLogRepository) ErrorCountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.APILog{}).
		Where("timestamp >= ? AND status_code >= ?", since, 400).
		Count(&count).Error
	return count, err
}

func (r *apiLogRepository) AvgResponseTimeSince(ctx context.Context, since time.Time) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&models.APILog{}).
		Where("timestamp >= ?", since).
		Select("COALESCE(AVG(response_time_ms), 0)").
		Scan(&avg).Error
	return avg, err
}

func (r *apiLogRepository) ErrorBucketsSince(ctx context.Context, since time.Time) ([]ErrorBucket, error) {
	var buckets []ErrorBucket
	err := r.db.WithContext(ctx).Model(&models.APILog{}).
		Select("path, status_code, COUNT(*) AS count").
		Where("timestamp >= ? AND status_code >= ?", since, 400).
		Group("path, status_code").
		Order("count DESC").
		Scan(&buckets).Error
	return buckets, err
}

func (r *apiLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.APILog{})
	return res.RowsAffected, res.Error
}
