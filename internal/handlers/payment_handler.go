package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/middleware"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/internal/services"
	"github.com/voyagenest/booking-backend/internal/utils"
)

// PaymentHandler handles order creation and payment verification endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateOrder handles POST /payments/create-order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	meta := services.RequestMeta{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}

	result, err := h.paymentService.CreateOrder(userCtx.UserID.String(), &req, c.GetHeader("Idempotency-Key"), meta)
	if err != nil {
		if errors.Is(err, services.ErrOrderRequestInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// gateway and database failures alike surface generically
		h.logger.WithError(err).Error("Order creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": gin.H{
			"id":                result.Booking.ID,
			"booking_reference": result.Booking.BookingReference,
			"status":            result.Booking.Status,
			"payment_status":    result.Booking.PaymentStatus,
			"destination":       result.Booking.Destination,
			"total_amount":      result.Booking.TotalAmount,
			"currency":          result.Booking.Currency,
		},
		"order": gin.H{
			"id":       result.Order.ID,
			"amount":   result.Order.Amount,
			"currency": result.Order.Currency,
		},
		"payment": gin.H{
			"id": result.Payment.ID,
		},
	})
}

// VerifyPayment handles POST /payments/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	meta := services.RequestMeta{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}

	result, err := h.paymentService.VerifyPayment(userCtx.UserID.String(), &req, meta)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, services.ErrNotBookingOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, services.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		default:
			h.logger.WithError(err).Error("Payment verification failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": result.Booking,
		"payment": result.Payment,
	})
}
