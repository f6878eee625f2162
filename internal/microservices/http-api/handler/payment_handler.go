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

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	filter := repository.PaymentListFilter{
		UserID:        c.Query("user_id"),
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
	}
	filter.Offset, filter.Limit = pagination(c)

	if after := c.Query("created_after"); after != "" {
		parsed, err := time.Parse(time.RFC3339, after)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_after"})
			return
		}
		filter.CreatedAfter = &parsed
	}
	if before := c.Query("created_before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_before"})
			return
		}
		filter.CreatedBefore = &parsed
	}

	resp, err := h.paymentService.ListPayments(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetStatistics(c *gin.Context) {
	stats, err := h.paymentService.GetStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PaymentHandler) GetAnalytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	analytics, err := h.paymentService.GetAnalytics(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Param("payment_id"))
	if errors.Is(err, service.ErrPaymentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payment"})
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.paymentService.CreatePayment(&req)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.paymentService.UpdatePayment(c.Param("payment_id"), &req)
	if errors.Is(err, service.ErrPaymentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payment"})
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.paymentService.RefundPayment(c.Param("payment_id"), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, payment)
	case errors.Is(err, service.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
	case errors.Is(err, service.ErrPaymentNotRefundable):
		c.JSON(http.StatusConflict, gin.H{"error": "only completed payments can be refunded"})
	case errors.Is(err, service.ErrRefundTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "refund amount exceeds refundable amount"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refund payment"})
	}
}

func (h *PaymentHandler) ListSubscriptions(c *gin.Context) {
	filter := repository.SubscriptionListFilter{
		UserID: c.Query("user_id"),
		Plan:   c.Query("plan"),
		Status: c.Query("status"),
	}
	filter.Offset, filter.Limit = pagination(c)

	resp, err := h.paymentService.ListSubscriptions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subscriptions"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetSubscription(c *gin.Context) {
	sub, err := h.paymentService.GetSubscription(c.Param("subscription_id"))
	if errors.Is(err, service.ErrSubscriptionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *PaymentHandler) GetSubscriptionStatistics(c *gin.Context) {
	stats, err := h.paymentService.GetSubscriptionStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PaymentHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.paymentService.CreateSubscription(&req)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subscription"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *PaymentHandler) UpdateSubscription(c *gin.Context) {
	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.paymentService.UpdateSubscription(c.Param("subscription_id"), &req)
	if errors.Is(err, service.ErrSubscriptionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subscription"})
		return
	}
	c.JSON(http.StatusOK, sub)
}
