package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/cache"
	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/microservices/http-api/repository"
)

var ErrAlertNotFound = errors.New("alert not found")

// ConnectionCounter reports how many realtime connections are live. The
// socket registry satisfies this.
type ConnectionCounter interface {
	Len() int
}

// HealthStatus is the component-by-component health report.
type HealthStatus struct {
	Status     string            `json:"status"` // "healthy" or "degraded"
	Components map[string]string `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

// PerformanceReport aggregates API traffic over a window.
type PerformanceReport struct {
	WindowHours       int     `json:"window_hours"`
	TotalRequests     int64   `json:"total_requests"`
	ErrorCount        int64   `json:"error_count"`
	ErrorRate         float64 `json:"error_rate"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// RealtimeStatus is the live system view for the monitoring page.
type RealtimeStatus struct {
	ConnectedAdmins int                   `json:"connected_admins"`
	ActiveAlerts    int                   `json:"active_alerts"`
	RecentMetrics   []models.SystemMetric `json:"recent_metrics"`
	Timestamp       time.Time             `json:"timestamp"`
}

// CleanupResult reports how many rows each retention sweep removed.
type CleanupResult struct {
	MetricsDeleted    int64 `json:"metrics_deleted"`
	APILogsDeleted    int64 `json:"api_logs_deleted"`
	ActivitiesDeleted int64 `json:"activities_deleted"`
}

type MonitoringService interface {
	GetHealth(ctx context.Context) *HealthStatus
	GetRealtimeStatus(ctx context.Context) (*RealtimeStatus, error)
	GetPerformance(ctx context.Context, hours int) (*PerformanceReport, error)
	GetMetricsHistory(ctx context.Context, metricType string, hours, limit int) ([]models.SystemMetric, error)
	RecordMetric(ctx context.Context, req *dto.RecordMetricRequest) (*models.SystemMetric, error)
	LogAPIRequest(ctx context.Context, req *dto.LogAPIRequest) error
	ListAPILogs(ctx context.Context, filter repository.APILogListFilter) ([]models.APILog, int64, error)
	GetErrorAnalysis(ctx context.Context, hours int) ([]repository.ErrorBucket, error)
	ListAlerts(ctx context.Context, status string, limit int) ([]models.SystemAlert, error)
	CreateAlert(ctx context.Context, req *dto.CreateAlertRequest) (*models.SystemAlert, error)
	ResolveAlert(ctx context.Context, id string) (*models.SystemAlert, error)
	Cleanup(ctx context.Context, days int) (*CleanupResult, error)
}

type monitoringService struct {
	db          *gorm.DB
	cache       *cache.MetricsCache
	metricsRepo repository.MetricsRepository
	alertRepo   repository.AlertRepository
	apiLogRepo  repository.APILogRepository
	activityRep repository.ActivityLogRepository
	connections ConnectionCounter
	logger      *slog.Logger
}

func NewMonitoringService(
	db *gorm.DB,
	metricsCache *cache.MetricsCache,
	metricsRepo repository.MetricsRepository,
	alertRepo repository.AlertRepository,
	apiLogRepo repository.APILogRepository,
	activityRepo repository.ActivityLogRepository,
	connections ConnectionCounter,
	logger *slog.Logger,
) MonitoringService {
	return &monitoringService{
		db:          db,
		cache:       metricsCache,
		metricsRepo: metricsRepo,
		alertRepo:   alertRepo,
		apiLogRepo:  apiLogRepo,
		activityRep: activityRepo,
		connections: connections,
		logger:      logger,
	}
}

// GetHealth pings each backing component. It never returns an error; a
// broken component shows up as "unhealthy" in the report instead.
func (s *monitoringService) GetHealth(ctx context.Context) *HealthStatus {
	components := map[string]string{}
	status := "healthy"

	if sqlDB, err := s.db.DB(); err != nil {
		components["database"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		components["database"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else {
		components["database"] = "healthy"
	}

	if err := s.cache.Ping(ctx); err != nil {
		components["cache"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else {
		components["cache"] = "healthy"
	}

	return &HealthStatus{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
}

func (s *monitoringService) GetRealtimeStatus(ctx context.Context) (*RealtimeStatus, error) {
	alerts, err := s.alertRepo.List(ctx, models.AlertStatusActive, 1000)
	if err != nil {
		return nil, err
	}
	metrics, err := s.metricsRepo.RecentMetrics(ctx, time.Minute, 10)
	if err != nil {
		return nil, err
	}

	connected := 0
	if s.connections != nil {
		connected = s.connections.Len()
	}

	return &RealtimeStatus{
		ConnectedAdmins: connected,
		ActiveAlerts:    len(alerts),
		RecentMetrics:   metrics,
		Timestamp:       time.Now().UTC(),
	}, nil
}

func (s *monitoringService) GetPerformance(ctx context.Context, hours int) (*PerformanceReport, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	total, err := s.apiLogRepo.CountSince(ctx, since)
	if err != nil {
		return nil, err
	}
	errorCount, err := s.apiLogRepo.ErrorCountSince(ctx, since)
	if err != nil {
		return nil, err
	}
	avg, err := s.apiLogRepo.AvgResponseTimeSince(ctx, since)
	if err != nil {
		return nil, err
	}

	errorRate := 0.0
	if total > 0 {
		errorRate = float64(errorCount) / float64(total)
	}

	return &PerformanceReport{
		WindowHours:       hours,
		TotalRequests:     total,
		ErrorCount:        errorCount,
		ErrorRate:         errorRate,
		AvgResponseTimeMs: avg,
	}, nil
}

func (s *monitoringService) GetMetricsHistory(ctx context.Context, metricType string, hours, limit int) ([]models.SystemMetric, error) {
	if hours <= 0 {
		hours = 24
	}
	return s.metricsRepo.History(ctx, metricType, hours, limit)
}

func (s *monitoringService) RecordMetric(ctx context.Context, req *dto.RecordMetricRequest) (*models.SystemMetric, error) {
	metric := &models.SystemMetric{
		MetricType: req.MetricType,
		Value:      req.Value,
		Unit:       req.Unit,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.metricsRepo.Record(ctx, metric); err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *monitoringService) LogAPIRequest(ctx context.Context, req *dto.LogAPIRequest) error {
	return s.apiLogRepo.Create(ctx, &models.APILog{
		Method:         req.Method,
		Path:           req.Path,
		StatusCode:     req.StatusCode,
		ResponseTimeMs: req.ResponseTimeMs,
		UserID:         req.UserID,
		IPAddress:      req.IPAddress,
		ErrorMessage:   req.ErrorMessage,
		Timestamp:      time.Now().UTC(),
	})
}

func (s *monitoringService) ListAPILogs(ctx context.Context, filter repository.APILogListFilter) ([]models.APILog, int64, error) {
	return s.apiLogRepo.List(ctx, filter)
}

func (s *monitoringService) GetErrorAnalysis(ctx context.Context, hours int) ([]repository.ErrorBucket, error) {
	if hours <= 0 {
		hours = 24
	}
	return s.apiLogRepo.ErrorBucketsSince(ctx, time.Now().Add(-time.Duration(hours)*time.Hour))
}

func (s *monitoringService) ListAlerts(ctx context.Context, status string, limit int) ([]models.SystemAlert, error) {
	return s.alertRepo.List(ctx, status, limit)
}

func (s *monitoringService) CreateAlert(ctx context.Context, req *dto.CreateAlertRequest) (*models.SystemAlert, error) {
	alert := &models.SystemAlert{
		AlertType: req.AlertType,
		Severity:  req.Severity,
		Message:   req.Message,
		Status:    models.AlertStatusActive,
	}
	if alert.Severity == "" {
		alert.Severity = "info"
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, err
	}
	s.logger.Info("alert created", "alert_id", alert.ID, "type", alert.AlertType, "severity", alert.Severity)
	return alert, nil
}

func (s *monitoringService) ResolveAlert(ctx context.Context, id string) (*models.SystemAlert, error) {
	if _, err := s.alertRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	if err := s.alertRepo.Resolve(ctx, id); err != nil {
		return nil, err
	}
	return s.alertRepo.FindByID(ctx, id)
}

// Cleanup deletes monitoring rows older than the retention window.
func (s *monitoringService) Cleanup(ctx context.Context, days int) (*CleanupResult, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	metricsDeleted, err := s.metricsRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	logsDeleted, err := s.apiLogRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	activitiesDeleted, err := s.activityRep.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	s.logger.Info("monitoring cleanup",
		"cutoff", cutoff,
		"metrics_deleted", metricsDeleted,
		"api_logs_deleted", logsDeleted,
		"activities_deleted", activitiesDeleted)

	return &CleanupResult{
		MetricsDeleted:    metricsDeleted,
		APILogsDeleted:    logsDeleted,
		ActivitiesDeleted: activitiesDeleted,
	}, nil
}
