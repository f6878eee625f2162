package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/repository"
	"patentadmin/internal/microservices/http-api/service"
)

type MonitoringHandler struct {
	monitoringService service.MonitoringService
}

func NewMonitoringHandler(monitoringService service.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoringService: monitoringService}
}

func (h *MonitoringHandler) GetHealth(c *gin.Context) {
	health := h.monitoringService.GetHealth(c.Request.Context())
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

func (h *MonitoringHandler) GetRealtimeStatus(c *gin.Context) {
	status, err := h.monitoringService.GetRealtimeStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load realtime status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *MonitoringHandler) GetPerformance(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))

	report, err := h.monitoringService.GetPerformance(c.Request.Context(), hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load performance report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *MonitoringHandler) GetMetricsHistory(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "1000"))

	metrics, err := h.monitoringService.GetMetricsHistory(c.Request.Context(), c.Query("metric_type"), hours, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metrics history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

func (h *MonitoringHandler) RecordMetric(c *gin.Context) {
	var req dto.RecordMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metric, err := h.monitoringService.RecordMetric(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record metric"})
		return
	}
	c.JSON(http.StatusCreated, metric)
}

func (h *MonitoringHandler) LogAPIRequest(c *gin.Context) {
	var req dto.LogAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.monitoringService.LogAPIRequest(c.Request.Context(), &req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log request"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "logged"})
}

func (h *MonitoringHandler) ListAPILogs(c *gin.Context) {
	filter := repository.APILogListFilter{
		Path:       c.Query("path"),
		ErrorsOnly: c.Query("errors_only") == "true",
	}
	filter.Offset, filter.Limit = pagination(c)

	if code := c.Query("status_code"); code != "" {
		parsed, err := strconv.Atoi(code)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status_code"})
			return
		}
		filter.StatusCode = parsed
	}
	if since := c.Query("since"); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
			return
		}
		filter.Since = &parsed
	}

	logs, total, err := h.monitoringService.ListAPILogs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total})
}

func (h *MonitoringHandler) GetErrorAnalysis(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))

	buckets, err := h.monitoringService.GetErrorAnalysis(c.Request.Context(), hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load error analysis"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": buckets})
}

func (h *MonitoringHandler) ListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	alerts, err := h.monitoringService.ListAlerts(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *MonitoringHandler) CreateAlert(c *gin.Context) {
	var req dto.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.monitoringService.CreateAlert(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *MonitoringHandler) ResolveAlert(c *gin.Context) {
	alert, err := h.monitoringService.ResolveAlert(c.Request.Context(), c.Param("alert_id"))
	if errors.Is(err, service.ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve alert"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *MonitoringHandler) Cleanup(c *gin.Context) {
	var req dto.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.monitoringService.Cleanup(c.Request.Context(), req.Days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
