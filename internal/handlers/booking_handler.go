package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/middleware"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/internal/services"
)

// BookingHandler handles booking read and edit endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// List handles GET /bookings
func (h *BookingHandler) List(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	bookings, err := h.bookingService.ListForUser(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

// Get handles GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.GetForUser(userCtx.UserID.String(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to load booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// Cancel handles POST /bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	booking, err := h.bookingService.Cancel(userCtx.UserID.String(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// UpdateContact handles PUT /bookings/:id/contact
func (h *BookingHandler) UpdateContact(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.UpdateBookingContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookingService.UpdateContact(userCtx.UserID.String(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err, "failed to update booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// History handles GET /bookings/:id/history
func (h *BookingHandler) History(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	history, err := h.bookingService.PaymentHistory(userCtx.UserID.String(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to load payment history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

func (h *BookingHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, services.ErrBookingNotCancellable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
