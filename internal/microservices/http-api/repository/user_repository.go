package repository

import (
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// UserListFilter narrows a user listing; zero values mean "no filter".
type UserListFilter struct {
	Search           string // matched against email and name
	Role             string
	SubscriptionPlan string
	IsActive         *bool
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
	SortBy           string
	SortDesc         bool
	Offset           int
	Limit            int
}

// UserRepository defines the interface for end-user data operations.
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Deactivate(id string) error
	List(filter UserListFilter) ([]models.User, int64, error)
	BulkUpdate(ids []string, updates map[string]any) (int64, error)
	CountAll() (int64, error)
	CountActive() (int64, error)
	CountCreatedSince(since time.Time) (int64, error)
	CountByRole() (map[string]int64, error)
	CountByPlan() (map[string]int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Deactivate is a soft delete: the row stays, is_active flips to false.
func (r *userRepository) Deactivate(id string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *userRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.SubscriptionPlan != "" {
		query = query.Where("subscription_plan = ?", filter.SubscriptionPlan)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := sortBy
	if filter.SortDesc {
		order += " DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var users []models.User
	err := query.Order(order).Offset(filter.Offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) BulkUpdate(ids []string, updates map[string]any) (int64, error) {
	res := r.db.Model(&models.User{}).
		Where("id IN ?", ids).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *userRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *userRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

type groupCount struct {
	Key   string
	Count int64
}

func (r *userRepository) CountByRole() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.User{}).
		Select("role AS key, COUNT(*) AS count").
		Group("role").
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

func (r *userRepository) CountByPlan() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.User{}).
		Select("subscription_plan AS key, COUNT(*) AS count").
		Group("subscription_plan").
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
