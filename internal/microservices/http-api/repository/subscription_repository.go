package repository

import (
	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// SubscriptionListFilter narrows a subscription listing.
type SubscriptionListFilter struct {
	UserID string
	Plan   string
	Status string
	Offset int
	Limit  int
}

type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	FindByID(id string) (*models.Subscription, error)
	FindActiveByUserID(userID string) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	List(filter SubscriptionListFilter) ([]models.Subscription, int64, error)
	CountByPlan() (map[string]int64, error)
	CountByStatus() (map[string]int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) FindByID(id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindActiveByUserID(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) List(filter SubscriptionListFilter) ([]models.Subscription, int64, error) {
	query := r.db.Model(&models.Subscription{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Plan != "" {
		query = query.Where("plan = ?", filter.Plan)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var subs []models.Subscription
	err := query.Order("created_at DESC").Offset(filter.Offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

func (r *subscriptionRepository) CountByPlan() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.Subscription{}).
		Select("plan AS key, COUNT(*) AS count").
		Group("plan").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

func (r *subscriptionRepository) CountByStatus() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.Subscription{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}
