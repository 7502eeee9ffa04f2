package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voyagenest/booking-backend/internal/models"
	"github.com/voyagenest/booking-backend/internal/services"
)

// ItineraryHandler handles itinerary generation
type ItineraryHandler struct {
	itineraryService *services.ItineraryService
}

// NewItineraryHandler creates a new ItineraryHandler
func NewItineraryHandler(itineraryService *services.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itineraryService: itineraryService}
}

// Generate handles POST /itinerary/generate
func (h *ItineraryHandler) Generate(c *gin.Context) {
	var req models.GenerateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	itinerary, err := h.itineraryService.Generate(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "itinerary": itinerary})
}
