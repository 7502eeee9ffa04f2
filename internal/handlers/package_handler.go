package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/voyagenest/booking-backend/internal/database"
)

// PackageHandler handles public travel package endpoints
type PackageHandler struct {
	packageRepo *database.PackageRepository
	logger      *logrus.Logger
}

// NewPackageHandler creates a new PackageHandler
func NewPackageHandler(packageRepo *database.PackageRepository, logger *logrus.Logger) *PackageHandler {
	return &PackageHandler{
		packageRepo: packageRepo,
		logger:      logger,
	}
}

// List handles GET /packages?destination=
func (h *PackageHandler) List(c *gin.Context) {
	destination := c.Query("destination")

	packages, err := h.packageRepo.ListActive(destination)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list packages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list packages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "packages": packages})
}

// GetBySlug handles GET /packages/:slug
func (h *PackageHandler) GetBySlug(c *gin.Context) {
	pkg, err := h.packageRepo.GetBySlug(c.Param("slug"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load package")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load package"})
		return
	}
	if pkg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "package": pkg})
}
