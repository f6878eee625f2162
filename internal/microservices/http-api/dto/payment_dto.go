package dto

import (
	"time"

	"patentadmin/internal/microservices/http-api/models"
)

type CreatePaymentRequest struct {
	UserID        string  `json:"user_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	TransactionID string  `json:"transaction_id"`
	Description   string  `json:"description"`
}

type UpdatePaymentRequest struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount"` // nil means full refund
	Reason string   `json:"reason"`
}

type PaymentListResponse struct {
	Payments []models.Payment `json:"payments"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
}

type CreateSubscriptionRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	Plan      string     `json:"plan" binding:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type UpdateSubscriptionRequest struct {
	Plan     *string    `json:"plan"`
	Status   *string    `json:"status"`
	IsActive *bool      `json:"is_active"`
	EndDate  *time.Time `json:"end_date"`
}

type SubscriptionListResponse struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
}
