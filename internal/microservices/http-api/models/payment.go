package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses follow the payment gateway vocabulary.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type Payment struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string     `gorm:"index;type:uuid;not null" json:"user_id"`
	Amount         float64    `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"default:'KRW';not null" json:"currency"`
	Status         string     `gorm:"index;default:'pending';not null" json:"status"`
	PaymentMethod  string     `json:"payment_method"` // "card", "bank_transfer", "virtual_account"
	TransactionID  string     `gorm:"index" json:"transaction_id"`
	Description    string     `json:"description"`
	RefundedAmount float64    `gorm:"default:0" json:"refunded_amount"`
	RefundReason   string     `json:"refund_reason,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

func (Payment) TableName() string {
	return "payments"
}

type Subscription struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"index;type:uuid;not null" json:"user_id"`
	Plan      string     `gorm:"not null" json:"plan"`
	Status    string     `gorm:"index;default:'active';not null" json:"status"` // "active", "cancelled", "expired"
	IsActive  bool       `gorm:"default:true;not null" json:"is_active"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

func (Subscription) TableName() string {
	return "subscriptions"
}
