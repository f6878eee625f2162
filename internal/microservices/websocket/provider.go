package websocket

import (
	"context"

	"patentadmin/internal/microservices/http-api/service"
)

// AdminDataProvider answers request_data messages from the management
// services. The served data_types are user_activity, payment_trends and
// system_performance; anything else is ErrUnknownDataType.
type AdminDataProvider struct {
	users      service.UserService
	payments   service.PaymentService
	monitoring service.MonitoringService
}

func NewAdminDataProvider(users service.UserService, payments service.PaymentService, monitoring service.MonitoringService) *AdminDataProvider {
	return &AdminDataProvider{
		users:      users,
		payments:   payments,
		monitoring: monitoring,
	}
}

func (p *AdminDataProvider) FetchData(ctx context.Context, dataType string) (map[string]any, error) {
	switch dataType {
	case "user_activity":
		stats, err := p.users.GetStatistics()
		if err != nil {
			return nil, err
		}
		return map[string]any{"statistics": stats}, nil
	case "payment_trends":
		analytics, err := p.payments.GetAnalytics(30)
		if err != nil {
			return nil, err
		}
		return map[string]any{"analytics": analytics}, nil
	case "system_performance":
		report, err := p.monitoring.GetPerformance(ctx, 24)
		if err != nil {
			return nil, err
		}
		return map[string]any{"performance": report}, nil
	default:
		return nil, ErrUnknownDataType
	}
}
