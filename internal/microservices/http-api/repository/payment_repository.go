package repository

import (
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/models"
)

// PaymentListFilter narrows a payment listing; zero values mean "no filter".
type PaymentListFilter struct {
	UserID        string
	Status        string
	PaymentMethod string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Offset        int
	Limit         int
}

// DailyRevenue is one day of completed-payment revenue.
type DailyRevenue struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
	Count   int64     `json:"count"`
}

// PaymentRepository defines the interface for payment data operations.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	FindByID(id string) (*models.Payment, error)
	Update(payment *models.Payment) error
	List(filter PaymentListFilter) ([]models.Payment, int64, error)
	FindRecentByUserID(userID string, limit int) ([]models.Payment, error)
	CountByStatus() (map[string]int64, error)
	SumCompletedAmount() (float64, error)
	SumCompletedAmountSince(since time.Time) (float64, error)
	CountCreatedSince(since time.Time) (int64, error)
	DailyRevenueSeries(days int) ([]DailyRevenue, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) FindByID(id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

func (r *paymentRepository) List(filter PaymentListFilter) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
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

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var payments []models.Payment
	err := query.Order("created_at DESC").Offset(filter.Offset).Limit(limit).Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) FindRecentByUserID(userID string, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) CountByStatus() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.Payment{}).
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

func (r *paymentRepository) SumCompletedAmount() (float64, error) {
	var total float64
	err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *paymentRepository) SumCompletedAmountSince(since time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.Payment{}).
		Where("status = ? AND created_at >= ?", models.PaymentStatusCompleted, since).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *paymentRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// DailyRevenueSeries returns one row per day with completed revenue,
// oldest day first. Days with no payments are absent from the result.
func (r *paymentRepository) DailyRevenueSeries(days int) ([]DailyRevenue, error) {
	since := time.Now().AddDate(0, 0, -days)
	var rows []DailyRevenue
	err := r.db.Model(&models.Payment{}).
		Select("DATE_TRUNC('day', created_at) AS day, COALESCE(SUM(amount), 0) AS revenue, COUNT(*) AS count").
		Where("status = ? AND created_at >= ?", models.PaymentStatusCompleted, since).
		Group("DATE_TRUNC('day', created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}
