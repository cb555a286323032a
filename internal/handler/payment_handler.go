package handler

import (
	"github.com/gerakkita/service-transit/internal/application"
	"github.com/gerakkita/service-transit/internal/payment"
	"github.com/gerakkita/service-transit/internal/platform/response"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles the payment gateway's server-to-server webhook.
// The endpoint is unauthenticated; the notification's signature is the proof
// of origin.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers the webhook route on the given router group.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/api/v1/payments/notification", h.Notification)
}

// Notification handles POST /api/v1/payments/notification.
func (h *PaymentHandler) Notification(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.HandleNotification(c.Request.Context(), n); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"received": true})
}
