package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminUser is an operator account for the admin dashboard.
// Separate table from the product's end users.
type AdminUser struct {
	ID                  string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Name                string     `gorm:"not null" json:"name"`
	Password            string     `gorm:"column:password_hash;not null" json:"-"` // Not shown in JSON
	Role                string     `gorm:"default:'admin';not null" json:"role"`   // "admin" or "super_admin"
	IsActive            bool       `gorm:"default:true;not null" json:"is_active"`
	TwoFactorEnabled    bool       `gorm:"default:false;not null" json:"two_factor_enabled"`
	TwoFactorSecret     string     `gorm:"column:two_factor_secret" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0;not null" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating an AdminUser
func (a *AdminUser) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// IsSuperAdmin reports whether the account holds the super_admin role.
func (a *AdminUser) IsSuperAdmin() bool {
	return a.Role == "super_admin"
}

// IsLocked reports whether the account is currently locked out.
func (a *AdminUser) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// AdminSession is one refresh-token session for an admin.
// The opaque refresh token doubles as the session credential.
type AdminSession struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID      string    `gorm:"index;type:uuid;not null" json:"admin_id"`
	RefreshToken string    `gorm:"uniqueIndex;not null" json:"-"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	IsActive     bool      `gorm:"default:true;not null" json:"is_active"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *AdminSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}
