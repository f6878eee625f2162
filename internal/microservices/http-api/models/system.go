package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemMetric is one recorded sample of a named metric
// (cpu_usage, memory_usage, api_calls_per_minute, ...).
// The realtime metrics producer reads the last-minute window of these.
type SystemMetric struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MetricType string    `gorm:"index;not null" json:"metric_type"`
	Value      float64   `gorm:"not null" json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`
}

func (SystemMetric) TableName() string {
	return "real_time_metrics"
}

// Alert statuses; the alert producer only pushes "active" ones.
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

type SystemAlert struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	AlertType  string     `gorm:"not null" json:"alert_type"`
	Severity   string     `gorm:"default:'info';not null" json:"severity"` // "info", "warning", "critical"
	Message    string     `gorm:"not null" json:"message"`
	Status     string     `gorm:"index;default:'active';not null" json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *SystemAlert) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

func (SystemAlert) TableName() string {
	return "system_alerts"
}

// APILog is one logged API request, used for performance and error analysis.
type APILog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Method         string    `gorm:"not null" json:"method"`
	Path           string    `gorm:"index;not null" json:"path"`
	StatusCode     int       `gorm:"index;not null" json:"status_code"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	UserID         string    `gorm:"index" json:"user_id,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Timestamp      time.Time `gorm:"index;not null" json:"timestamp"`
}

func (APILog) TableName() string {
	return "api_logs"
}

// ActivityLog records admin actions (logins, user edits, refunds, ...).
type ActivityLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID      string    `gorm:"index;type:uuid" json:"admin_id"`
	Action       string    `gorm:"not null" json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Details      string    `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Success      bool      `gorm:"default:true;not null" json:"success"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "admin_activity_logs"
}
