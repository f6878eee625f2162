package websocket

import (
	"context"
	"log/slog"
	"time"

	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/microservices/http-api/repository"
)

// Broadcaster is the slice of the registry the producers need.
type Broadcaster interface {
	Broadcast(msg Message, exclude ...string)
	Len() int
}

// MetricsProducer periodically pushes the last minute of recorded metric
// samples to every connected admin. When nobody is connected it skips the
// query entirely; after a storage error it backs off before retrying.
type MetricsProducer struct {
	registry Broadcaster
	repo     repository.MetricsRepository
	interval time.Duration
	backoff  time.Duration
	logger   *slog.Logger
}

func NewMetricsProducer(registry Broadcaster, repo repository.MetricsRepository, interval time.Duration, logger *slog.Logger) *MetricsProducer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MetricsProducer{
		registry: registry,
		repo:     repo,
		interval: interval,
		backoff:  2 * interval,
		logger:   logger,
	}
}

// Run loops until the context is cancelled. Errors are logged and absorbed;
// the producer never dies.
func (p *MetricsProducer) Run(ctx context.Context) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(p.tick(ctx))
		}
	}
}

// tick does one push and returns the delay before the next one.
func (p *MetricsProducer) tick(ctx context.Context) time.Duration {
	if p.registry.Len() == 0 {
		return p.interval
	}

	metrics, err := p.repo.RecentMetrics(ctx, time.Minute, 10)
	if err != nil {
		p.logger.Error("metrics poll failed", "error", err)
		return p.backoff
	}

	if len(metrics) == 0 {
		return p.interval
	}

	p.registry.Broadcast(NewMessage(TypeSystemMetrics, map[string]any{
		"metrics": metricsPayload(metrics),
	}))
	return p.interval
}

func metricsPayload(metrics []models.SystemMetric) []map[string]any {
	out := make([]map[string]any, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, map[string]any{
			"metric_type": m.MetricType,
			"value":       m.Value,
			"unit":        m.Unit,
			"timestamp":   m.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// AlertProducer polls for active alerts created after its watermark and
// pushes each one to every connected admin. The watermark moves to the
// poll's start time after every successful poll, so an alert is pushed at
// most once and the watermark only ever moves forward.
type AlertProducer struct {
	registry Broadcaster
	repo     repository.AlertRepository
	interval time.Duration
	backoff  time.Duration
	logger   *slog.Logger

	since time.Time
}

func NewAlertProducer(registry Broadcaster, repo repository.AlertRepository, interval time.Duration, logger *slog.Logger) *AlertProducer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &AlertProducer{
		registry: registry,
		repo:     repo,
		interval: interval,
		backoff:  3 * interval,
		logger:   logger,
		since:    time.Now(),
	}
}

func (p *AlertProducer) Run(ctx context.Context) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(p.tick(ctx))
		}
	}
}

func (p *AlertProducer) tick(ctx context.Context) time.Duration {
	if p.registry.Len() == 0 {
		return p.interval
	}

	pollStart := time.Now()
	alerts, err := p.repo.ActiveCreatedAfter(ctx, p.since)
	if err != nil {
		p.logger.Error("alert poll failed", "error", err)
		return p.backoff
	}
	p.since = pollStart

	// Repo returns newest first; push in creation order
	for i := len(alerts) - 1; i >= 0; i-- {
		p.registry.Broadcast(NewMessage(TypeSystemAlert, alertPayload(&alerts[i])))
	}
	return p.interval
}

func alertPayload(alert *models.SystemAlert) map[string]any {
	return map[string]any{
		"id":         alert.ID,
		"alert_type": alert.AlertType,
		"severity":   alert.Severity,
		"message":    alert.Message,
		"status":     alert.Status,
		"created_at": alert.CreatedAt.UTC().Format(time.RFC3339),
	}
}
