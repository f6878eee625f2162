package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a product end user (patent-analysis customer), managed read/write
// by admins through the dashboard.
type User struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Name             string     `gorm:"not null" json:"name"`
	Password         string     `gorm:"column:password_hash;not null" json:"-"` // Not shown in JSON
	Role             string     `gorm:"default:'user';not null" json:"role"`
	SubscriptionPlan string     `gorm:"default:'free';not null" json:"subscription_plan"` // "free", "basic", "pro", "enterprise"
	IsActive         bool       `gorm:"default:true;not null" json:"is_active"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}
