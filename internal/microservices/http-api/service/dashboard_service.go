package service

import (
	"context"
	"log/slog"
	"time"

	"patentadmin/internal/cache"
	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/microservices/http-api/repository"
)

// DashboardMetrics is the headline widget row of the admin dashboard.
type DashboardMetrics struct {
	TotalUsers      int64   `json:"total_users"`
	ActiveUsers     int64   `json:"active_users"`
	NewUsersToday   int64   `json:"new_users_today"`
	TotalRevenue    float64 `json:"total_revenue"`
	RevenueToday    float64 `json:"revenue_today"`
	PaymentsToday   int64   `json:"payments_today"`
	ActiveAlerts    int64   `json:"active_alerts"`
	APICallsPerHour int64   `json:"api_calls_per_hour"`
}

// RealtimeSnapshot mirrors what the realtime metrics producer pushes over
// the socket, for clients that poll instead.
type RealtimeSnapshot struct {
	Metrics   []models.SystemMetric `json:"metrics"`
	Timestamp time.Time             `json:"timestamp"`
}

// DashboardOverview bundles everything the landing page needs in one call.
type DashboardOverview struct {
	Metrics          DashboardMetrics          `json:"metrics"`
	RevenueByDay     []repository.DailyRevenue `json:"revenue_by_day"`
	UsersByPlan      map[string]int64          `json:"users_by_plan"`
	PaymentsByStatus map[string]int64          `json:"payments_by_status"`
	RecentActivities []models.ActivityLog      `json:"recent_activities"`
}

// ChartData is a generic labelled series for the dashboard charts.
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// DashboardCharts bundles the two landing-page series.
type DashboardCharts struct {
	Revenue    *ChartData `json:"revenue"`
	UserGrowth *ChartData `json:"user_growth"`
}

type DashboardService interface {
	GetMetrics(ctx context.Context) (*DashboardMetrics, error)
	GetRealtimeSnapshot(ctx context.Context) (*RealtimeSnapshot, error)
	GetOverview(ctx context.Context) (*DashboardOverview, error)
	GetCharts(ctx context.Context, days int) (*DashboardCharts, error)
	GetRevenueChart(ctx context.Context, days int) (*ChartData, error)
	GetUserGrowthChart(ctx context.Context, days int) (*ChartData, error)
	GetRecentActivities(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type dashboardService struct {
	userRepo     repository.UserRepository
	paymentRepo  repository.PaymentRepository
	metricsRepo  repository.MetricsRepository
	alertRepo    repository.AlertRepository
	apiLogRepo   repository.APILogRepository
	activityRepo repository.ActivityLogRepository
	cache        *cache.MetricsCache
	logger       *slog.Logger
}

func NewDashboardService(
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	metricsRepo repository.MetricsRepository,
	alertRepo repository.AlertRepository,
	apiLogRepo repository.APILogRepository,
	activityRepo repository.ActivityLogRepository,
	metricsCache *cache.MetricsCache,
	logger *slog.Logger,
) DashboardService {
	return &dashboardService{
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		metricsRepo:  metricsRepo,
		alertRepo:    alertRepo,
		apiLogRepo:   apiLogRepo,
		activityRepo: activityRepo,
		cache:        metricsCache,
		logger:       logger,
	}
}

func (s *dashboardService) GetMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var cached DashboardMetrics
	if hit, err := s.cache.GetJSON(ctx, "metrics", &cached); err != nil {
		s.logger.Warn("dashboard cache read failed", "error", err)
	} else if hit {
		return &cached, nil
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totalUsers, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.userRepo.CountActive()
	if err != nil {
		return nil, err
	}
	newToday, err := s.userRepo.CountCreatedSince(today)
	if err != nil {
		return nil, err
	}
	totalRevenue, err := s.paymentRepo.SumCompletedAmount()
	if err != nil {
		return nil, err
	}
	revenueToday, err := s.paymentRepo.SumCompletedAmountSince(today)
	if err != nil {
		return nil, err
	}
	paymentsToday, err := s.paymentRepo.CountCreatedSince(today)
	if err != nil {
		return nil, err
	}
	activeAlerts, err := s.alertRepo.List(ctx, models.AlertStatusActive, 1000)
	if err != nil {
		return nil, err
	}
	apiCalls, err := s.apiLogRepo.CountSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return nil, err
	}

	metrics := &DashboardMetrics{
		TotalUsers:      totalUsers,
		ActiveUsers:     activeUsers,
		NewUsersToday:   newToday,
		TotalRevenue:    totalRevenue,
		RevenueToday:    revenueToday,
		PaymentsToday:   paymentsToday,
		ActiveAlerts:    int64(len(activeAlerts)),
		APICallsPerHour: apiCalls,
	}

	if err := s.cache.SetJSON(ctx, "metrics", metrics); err != nil {
		s.logger.Warn("dashboard cache write failed", "error", err)
	}
	return metrics, nil
}

// GetRealtimeSnapshot returns the last minute of recorded metric samples.
func (s *dashboardService) GetRealtimeSnapshot(ctx context.Context) (*RealtimeSnapshot, error) {
	metrics, err := s.metricsRepo.RecentMetrics(ctx, time.Minute, 10)
	if err != nil {
		return nil, err
	}
	return &RealtimeSnapshot{
		Metrics:   metrics,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *dashboardService) GetOverview(ctx context.Context) (*DashboardOverview, error) {
	var cached DashboardOverview
	if hit, err := s.cache.GetJSON(ctx, "overview", &cached); err != nil {
		s.logger.Warn("dashboard cache read failed", "error", err)
	} else if hit {
		return &cached, nil
	}

	metrics, err := s.GetMetrics(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.paymentRepo.DailyRevenueSeries(30)
	if err != nil {
		return nil, err
	}
	byPlan, err := s.userRepo.CountByPlan()
	if err != nil {
		return nil, err
	}
	byStatus, err := s.paymentRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	activities, err := s.activityRepo.Recent(ctx, 20)
	if err != nil {
		return nil, err
	}

	overview := &DashboardOverview{
		Metrics:          *metrics,
		RevenueByDay:     revenue,
		UsersByPlan:      byPlan,
		PaymentsByStatus: byStatus,
		RecentActivities: activities,
	}

	if err := s.cache.SetJSON(ctx, "overview", overview); err != nil {
		s.logger.Warn("dashboard cache write failed", "error", err)
	}
	return overview, nil
}

func (s *dashboardService) GetCharts(ctx context.Context, days int) (*DashboardCharts, error) {
	revenue, err := s.GetRevenueChart(ctx, days)
	if err != nil {
		return nil, err
	}
	growth, err := s.GetUserGrowthChart(ctx, days)
	if err != nil {
		return nil, err
	}
	return &DashboardCharts{Revenue: revenue, UserGrowth: growth}, nil
}

func (s *dashboardService) GetRevenueChart(ctx context.Context, days int) (*ChartData, error) {
	if days <= 0 {
		days = 30
	}
	series, err := s.paymentRepo.DailyRevenueSeries(days)
	if err != nil {
		return nil, err
	}

	chart := &ChartData{
		Labels: make([]string, 0, len(series)),
		Values: make([]float64, 0, len(series)),
	}
	for _, point := range series {
		chart.Labels = append(chart.Labels, point.Day.Format("2006-01-02"))
		chart.Values = append(chart.Values, point.Revenue)
	}
	return chart, nil
}

// GetUserGrowthChart builds a cumulative user-count curve, one point per day.
// The count for day D is total users minus everyone who signed up after D.
func (s *dashboardService) GetUserGrowthChart(ctx context.Context, days int) (*ChartData, error) {
	if days <= 0 {
		days = 30
	}

	total, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chart := &ChartData{
		Labels: make([]string, 0, days),
		Values: make([]float64, 0, days),
	}
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
		after, err := s.userRepo.CountCreatedSince(endOfDay)
		if err != nil {
			return nil, err
		}
		chart.Labels = append(chart.Labels, day.Format("2006-01-02"))
		chart.Values = append(chart.Values, float64(total-after))
	}
	return chart, nil
}

func (s *dashboardService) GetRecentActivities(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return s.activityRepo.Recent(ctx, limit)
}
