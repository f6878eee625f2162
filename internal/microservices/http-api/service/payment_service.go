package service

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/microservices/http-api/repository"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotRefundable = errors.New("only completed payments can be refunded")
	ErrRefundTooLarge       = errors.New("refund amount exceeds payment amount")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// PaymentAnalytics is the revenue/volume summary for the payment screens.
type PaymentAnalytics struct {
	TotalRevenue    float64                   `json:"total_revenue"`
	RevenueThisWeek float64                   `json:"revenue_this_week"`
	PaymentsByDay   []repository.DailyRevenue `json:"payments_by_day"`
	CountByStatus   map[string]int64          `json:"count_by_status"`
	SubsByPlan      map[string]int64          `json:"subscriptions_by_plan"`
	SuccessRate     float64                   `json:"success_rate"`
}

// SubscriptionStatistics is the counters block above the subscription table.
type SubscriptionStatistics struct {
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	CountByPlan         map[string]int64 `json:"count_by_plan"`
	CountByStatus       map[string]int64 `json:"count_by_status"`
}

// PaymentStatistics is the quick counters block above the payment table.
type PaymentStatistics struct {
	TotalRevenue  float64          `json:"total_revenue"`
	CountByStatus map[string]int64 `json:"count_by_status"`
	PaymentsToday int64            `json:"payments_today"`
	SuccessRate   float64          `json:"success_rate"`
}

type PaymentService interface {
	ListPayments(filter repository.PaymentListFilter) (*dto.PaymentListResponse, error)
	GetPayment(id string) (*models.Payment, error)
	CreatePayment(req *dto.CreatePaymentRequest) (*models.Payment, error)
	UpdatePayment(id string, req *dto.UpdatePaymentRequest) (*models.Payment, error)
	RefundPayment(id string, req *dto.RefundRequest) (*models.Payment, error)
	GetStatistics() (*PaymentStatistics, error)
	GetAnalytics(days int) (*PaymentAnalytics, error)
	ListSubscriptions(filter repository.SubscriptionListFilter) (*dto.SubscriptionListResponse, error)
	GetSubscription(id string) (*models.Subscription, error)
	GetSubscriptionStatistics() (*SubscriptionStatistics, error)
	CreateSubscription(req *dto.CreateSubscriptionRequest) (*models.Subscription, error)
	UpdateSubscription(id string, req *dto.UpdateSubscriptionRequest) (*models.Subscription, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	subRepo     repository.SubscriptionRepository
	userRepo    repository.UserRepository
	logger      *slog.Logger
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		subRepo:     subRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

func (s *paymentService) ListPayments(filter repository.PaymentListFilter) (*dto.PaymentListResponse, error) {
	payments, total, err := s.paymentRepo.List(filter)
	if err != nil {
		return nil, err
	}

	size := filter.Limit
	if size <= 0 {
		size = 100
	}

	return &dto.PaymentListResponse{
		Payments: payments,
		Total:    total,
		Page:     filter.Offset/size + 1,
		Size:     size,
	}, nil
}

func (s *paymentService) GetPayment(id string) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	return payment, err
}

func (s *paymentService) CreatePayment(req *dto.CreatePaymentRequest) (*models.Payment, error) {
	if _, err := s.userRepo.FindByID(req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	payment := &models.Payment{
		UserID:        req.UserID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Description:   req.Description,
	}
	if payment.Currency == "" {
		payment.Currency = "KRW"
	}

	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	s.logger.Info("payment created", "payment_id", payment.ID, "user_id", payment.UserID, "amount", payment.Amount)
	return payment, nil
}

func (s *paymentService) UpdatePayment(id string, req *dto.UpdatePaymentRequest) (*models.Payment, error) {
	payment, err := s.GetPayment(id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		payment.Status = *req.Status
	}
	if req.Description != nil {
		payment.Description = *req.Description
	}

	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// RefundPayment refunds a completed payment, partially or in full. The amount
// may not exceed what was paid minus what was already refunded.
func (s *paymentService) RefundPayment(id string, req *dto.RefundRequest) (*models.Payment, error) {
	payment, err := s.GetPayment(id)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentStatusCompleted {
		return nil, ErrPaymentNotRefundable
	}

	remaining := payment.Amount - payment.RefundedAmount
	amount := remaining
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 || amount > remaining {
		return nil, ErrRefundTooLarge
	}

	now := time.Now()
	payment.RefundedAmount += amount
	payment.RefundReason = req.Reason
	payment.RefundedAt = &now
	if payment.RefundedAmount >= payment.Amount {
		payment.Status = models.PaymentStatusRefunded
	}

	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	s.logger.Info("payment refunded", "payment_id", payment.ID, "amount", amount)
	return payment, nil
}

// successRate is completed payments over all terminal payments.
func successRate(byStatus map[string]int64) float64 {
	var total int64
	for _, count := range byStatus {
		total += count
	}
	if total == 0 {
		return 0
	}
	return float64(byStatus[models.PaymentStatusCompleted]) / float64(total)
}

func (s *paymentService) GetStatistics() (*PaymentStatistics, error) {
	total, err := s.paymentRepo.SumCompletedAmount()
	if err != nil {
		return nil, err
	}
	byStatus, err := s.paymentRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	paymentsToday, err := s.paymentRepo.CountCreatedSince(today)
	if err != nil {
		return nil, err
	}

	return &PaymentStatistics{
		TotalRevenue:  total,
		CountByStatus: byStatus,
		PaymentsToday: paymentsToday,
		SuccessRate:   successRate(byStatus),
	}, nil
}

func (s *paymentService) GetAnalytics(days int) (*PaymentAnalytics, error) {
	if days <= 0 {
		days = 30
	}

	total, err := s.paymentRepo.SumCompletedAmount()
	if err != nil {
		return nil, err
	}
	week, err := s.paymentRepo.SumCompletedAmountSince(time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	daily, err := s.paymentRepo.DailyRevenueSeries(days)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.paymentRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	byPlan, err := s.subRepo.CountByPlan()
	if err != nil {
		return nil, err
	}

	return &PaymentAnalytics{
		TotalRevenue:    total,
		RevenueThisWeek: week,
		PaymentsByDay:   daily,
		CountByStatus:   byStatus,
		SubsByPlan:      byPlan,
		SuccessRate:     successRate(byStatus),
	}, nil
}

func (s *paymentService) ListSubscriptions(filter repository.SubscriptionListFilter) (*dto.SubscriptionListResponse, error) {
	subs, total, err := s.subRepo.List(filter)
	if err != nil {
		return nil, err
	}

	size := filter.Limit
	if size <= 0 {
		size = 100
	}

	return &dto.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         total,
		Page:          filter.Offset/size + 1,
		Size:          size,
	}, nil
}

func (s *paymentService) GetSubscription(id string) (*models.Subscription, error) {
	sub, err := s.subRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *paymentService) GetSubscriptionStatistics() (*SubscriptionStatistics, error) {
	byPlan, err := s.subRepo.CountByPlan()
	if err != nil {
		return nil, err
	}
	byStatus, err := s.subRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	return &SubscriptionStatistics{
		ActiveSubscriptions: byStatus["active"],
		CountByPlan:         byPlan,
		CountByStatus:       byStatus,
	}, nil
}

func (s *paymentService) CreateSubscription(req *dto.CreateSubscriptionRequest) (*models.Subscription, error) {
	if _, err := s.userRepo.FindByID(req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	sub := &models.Subscription{
		UserID:   req.UserID,
		Plan:     req.Plan,
		Status:   "active",
		IsActive: true,
	}
	if req.StartDate != nil {
		sub.StartDate = *req.StartDate
	} else {
		sub.StartDate = time.Now()
	}
	sub.EndDate = req.EndDate

	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}

	// Keep the denormalized plan on the user row in sync
	if user, err := s.userRepo.FindByID(req.UserID); err == nil {
		user.SubscriptionPlan = req.Plan
		if err := s.userRepo.Update(user); err != nil {
			s.logger.Warn("failed to sync user plan", "user_id", req.UserID, "error", err)
		}
	}

	return sub, nil
}

func (s *paymentService) UpdateSubscription(id string, req *dto.UpdateSubscriptionRequest) (*models.Subscription, error) {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if req.Plan != nil {
		sub.Plan = *req.Plan
	}
	if req.Status != nil {
		sub.Status = *req.Status
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
	if req.EndDate != nil {
		sub.EndDate = req.EndDate
	}

	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}
