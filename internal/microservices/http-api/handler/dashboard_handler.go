package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"patentadmin/internal/microservices/http-api/service"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.dashboardService.GetMetrics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metrics"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *DashboardHandler) GetRealtimeSnapshot(c *gin.Context) {
	snapshot, err := h.dashboardService.GetRealtimeSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load realtime metrics"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *DashboardHandler) GetOverview(c *gin.Context) {
	overview, err := h.dashboardService.GetOverview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load overview"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *DashboardHandler) GetCharts(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	charts, err := h.dashboardService.GetCharts(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load charts"})
		return
	}
	c.JSON(http.StatusOK, charts)
}

func (h *DashboardHandler) GetRevenueChart(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	chart, err := h.dashboardService.GetRevenueChart(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load revenue chart"})
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *DashboardHandler) GetUserGrowthChart(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	chart, err := h.dashboardService.GetUserGrowthChart(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user growth chart"})
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *DashboardHandler) GetRecentActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	activities, err := h.dashboardService.GetRecentActivities(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}
