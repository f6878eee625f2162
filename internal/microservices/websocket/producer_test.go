package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"patentadmin/internal/microservices/http-api/models"
)

// MockMetricsRepository mocks repository.MetricsRepository
type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) Record(ctx context.Context, metric *models.SystemMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockMetricsRepository) RecentMetrics(ctx context.Context, window time.Duration, limit int) ([]models.SystemMetric, error) {
	args := m.Called(ctx, window, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SystemMetric), args.Error(1)
}

func (m *MockMetricsRepository) History(ctx context.Context, metricType string, hours, limit int) ([]models.SystemMetric, error) {
	args := m.Called(ctx, metricType, hours, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SystemMetric), args.Error(1)
}

func (m *MockMetricsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertRepository mocks repository.AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *models.SystemAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id string) (*models.SystemAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SystemAlert), args.Error(1)
}

func (m *MockAlertRepository) ActiveCreatedAfter(ctx context.Context, since time.Time) ([]models.SystemAlert, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SystemAlert), args.Error(1)
}

func (m *MockAlertRepository) List(ctx context.Context, status string, limit int) ([]models.SystemAlert, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SystemAlert), args.Error(1)
}

func (m *MockAlertRepository) Resolve(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestMetricsProducer_SkipsQueryWhenNobodyConnected(t *testing.T) {
	registry := NewRegistry(testLogger())
	repo := new(MockMetricsRepository)
	producer := NewMetricsProducer(registry, repo, 30*time.Second, testLogger())

	delay := producer.tick(context.Background())

	assert.Equal(t, 30*time.Second, delay)
	repo.AssertNotCalled(t, "RecentMetrics", mock.Anything, mock.Anything, mock.Anything)
}

func TestMetricsProducer_BroadcastsRecentSamples(t *testing.T) {
	registry := NewRegistry(testLogger())
	conn := &fakeTransport{}
	registry.Register(ident("admin-1"), conn)

	repo := new(MockMetricsRepository)
	repo.On("RecentMetrics", mock.Anything, time.Minute, 10).Return([]models.SystemMetric{
		{MetricType: "cpu_usage", Value: 41.5, Unit: "percent", Timestamp: time.Now()},
		{MetricType: "memory_usage", Value: 72.0, Unit: "percent", Timestamp: time.Now()},
	}, nil)

	producer := NewMetricsProducer(registry, repo, 30*time.Second, testLogger())
	delay := producer.tick(context.Background())

	assert.Equal(t, 30*time.Second, delay)
	pushes := conn.receivedOfType(TypeSystemMetrics)
	assert.Len(t, pushes, 1)
	assert.Equal(t, MessageType("system_metrics"), pushes[0].Type)
	samples := pushes[0].Data["metrics"].([]map[string]any)
	assert.Len(t, samples, 2)
	assert.Equal(t, "cpu_usage", samples[0]["metric_type"])
	repo.AssertExpectations(t)
}

func TestMetricsProducer_NoSamplesNoBroadcast(t *testing.T) {
	registry := NewRegistry(testLogger())
	conn := &fakeTransport{}
	registry.Register(ident("admin-1"), conn)

	repo := new(MockMetricsRepository)
	repo.On("RecentMetrics", mock.Anything, time.Minute, 10).Return([]models.SystemMetric{}, nil)

	producer := NewMetricsProducer(registry, repo, 30*time.Second, testLogger())
	producer.tick(context.Background())

	assert.Empty(t, conn.receivedOfType(TypeSystemMetrics))
}

func TestMetricsProducer_BacksOffOnStorageError(t *testing.T) {
	registry := NewRegistry(testLogger())
	conn := &fakeTransport{}
	registry.Register(ident("admin-1"), conn)

	repo := new(MockMetricsRepository)
	repo.On("RecentMetrics", mock.Anything, time.Minute, 10).Return(nil, errors.New("db down"))

	producer := NewMetricsProducer(registry, repo, 30*time.Second, testLogger())
	delay := producer.tick(context.Background())

	assert.Equal(t, time.Minute, delay)
	assert.Empty(t, conn.receivedOfType(TypeSystemMetrics))
}

func TestAlertProducer_SkipsQueryWhenNobodyConnected(t *testing.T) {
	registry := NewRegistry(testLogger())
	repo := new(MockAlertRepository)
	producer := NewAlertProducer(registry, repo, 10*time.Second, testLogger())

	delay := producer.tick(context.Background())

	assert.Equal(t, 10*time.Second, delay)
	repo.AssertNotCalled(t, "ActiveCreatedAfter", mock.Anything, mock.Anything)
}

func TestAlertProducer_WatermarkOnlyMovesForward(t *testing.T) {
	registry := NewRegistry(testLogger())
	conn := &fakeTransport{}
	registry.Register(ident("admin-1"), conn)

	repo := new(MockAlertRepository)
	var polled []time.Time
	repo.On("ActiveCreatedAfter", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			polled = append(polled, args.Get(1).(time.Time))
		}).
		Return([]models.SystemAlert{}, nil)

	producer := NewAlertProducer(registry, repo, 10*time.Second, testLogger())
	producer.tick(context.Background())
	time.Sleep(2 * time.Millisecond)
	producer.tick(context.Background())
	time.Sleep(2 * time.Millisecond)
	producer.tick(context.Background())

	assert.Len(t, polled, 3)
	assert.True(t, polled[1].After(polled[0]))
	assert.True(t, polled[2].After(polled[1]))
	// Nothing new, nothing pushed
	assert.Empty(t, conn.receivedOfType(TypeSystemAlert))
}

func TestAlertProducer_PushesNewAlertsOnce(t *testing.T) {
	registry := NewRegistry(testLogger())
	conn := &fakeTransport{}
	registry.Register(ident("admin-1"), conn)

	alert := models.SystemAlert{
		ID:        "alert-1",
		AlertType: "high_cpu",
		Severity:  "warning",
		Message:   "CPU above 90%",
		Status:    models.AlertStatusActive,
		CreatedAt: time.Now(),
	}

	repo := new(MockAlertRepository)
	repo.On("ActiveCreatedAfter", mock.Anything, mock.Anything).Return([]models.SystemAlert{alert}, nil).Once()
	repo.On("ActiveCreatedAfter", mock.Anything, mock.Anything).Return([]models.SystemAlert{}, nil)

	producer := NewAlertProducer(registry, repo, 10*time.Second, testLogger())
	producer.tick(context.Background())
	producer.tick(context.Background())

	pushes := conn.receivedOfType(TypeSystemAlert)
	assert.Len(t, pushes, 1)
	assert.Equal(t, "alert-1", pushes[0].Data["id"])
	assert.Equal(t, "high_cpu", pushes[0].Data["alert_type"])
	assert.Equal(t, "warning", pushes[0].Data["severity"])
	assert.Equal(t, models.AlertStatusActive, pushes[0].Data["status"])
}

func TestAlertProducer_ErrorKeepsWatermark(t *testing.T) {
	registry := NewRegistry(testLogger())
	registry.Register(ident("admin-1"), &fakeTransport{})

	repo := new(MockAlertRepository)
	var polled []time.Time
	repo.On("ActiveCreatedAfter", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			polled = append(polled, args.Get(1).(time.Time))
		}).
		Return(nil, errors.New("db down")).Once()
	repo.On("ActiveCreatedAfter", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			polled = append(polled, args.Get(1).(time.Time))
		}).
		Return([]models.SystemAlert{}, nil)

	producer := NewAlertProducer(registry, repo, 10*time.Second, testLogger())

	delay := producer.tick(context.Background())
	assert.Equal(t, 30*time.Second, delay)

	producer.tick(context.Background())

	// The failed poll must not advance the watermark
	assert.Len(t, polled, 2)
	assert.Equal(t, polled[0], polled[1])
}
