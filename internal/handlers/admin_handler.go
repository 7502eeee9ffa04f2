package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/services"
)

// AdminHandler exposes operational endpoints
type AdminHandler struct {
	cronService *services.CronService
	logger      *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(cronService *services.CronService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		cronService: cronService,
		logger:      logger,
	}
}

// RunReconcile handles POST /admin/reconcile/run
func (h *AdminHandler) RunReconcile(c *gin.Context) {
	report, err := h.cronService.RunReconcileNow()
	if err != nil {
		h.logger.WithError(err).Error("Manual reconciliation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed", "report": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
