package dto

type RecordMetricRequest struct {
	MetricType string  `json:"metric_type" binding:"required"`
	Value      float64 `json:"value" binding:"required"`
	Unit       string  `json:"unit"`
}

type CreateAlertRequest struct {
	AlertType string `json:"alert_type" binding:"required"`
	Severity  string `json:"severity" binding:"omitempty,oneof=info warning critical"`
	Message   string `json:"message" binding:"required"`
}

type LogAPIRequest struct {
	Method         string  `json:"method" binding:"required"`
	Path           string  `json:"path" binding:"required"`
	StatusCode     int     `json:"status_code" binding:"required"`
	ResponseTimeMs float64 `json:"response_time_ms"`
	UserID         string  `json:"user_id"`
	IPAddress      string  `json:"ip_address"`
	ErrorMessage   string  `json:"error_message"`
}

type CleanupRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

// BroadcastRequest is an admin-initiated realtime broadcast.
type BroadcastRequest struct {
	MessageType string         `json:"message_type" binding:"required"`
	Data        map[string]any `json:"data" binding:"required"`
}

// NotifyRequest is an admin-initiated unicast notification.
type NotifyRequest struct {
	Data map[string]any `json:"data" binding:"required"`
}
