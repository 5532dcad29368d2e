package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/dto"
	"github.com/yukikurage/calibrate-api/internal/middleware"
	"github.com/yukikurage/calibrate-api/internal/services"
)

type CapacityHandler struct {
	capacity *services.CapacityService
}

func NewCapacityHandler(capacity *services.CapacityService) *CapacityHandler {
	return &CapacityHandler{
		capacity: capacity,
	}
}

// Daily returns today's capacity status for the current user
func (h *CapacityHandler) Daily(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	daily, err := h.capacity.Daily(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "compute capacity")
		return
	}

	c.JSON(http.StatusOK, dto.ToCapacityResponse(daily.Date, daily.Preferences, daily.Status))
}

// Weekly returns seven days of capacity starting at ?start=YYYY-MM-DD
func (h *CapacityHandler) Weekly(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	week, err := h.capacity.Weekly(c.Request.Context(), userID, c.Query("start"))
	if err != nil {
		respondError(c, err, "compute weekly capacity")
		return
	}

	c.JSON(http.StatusOK, week)
}

// Insights returns estimate calibration over completed tasks
func (h *CapacityHandler) Insights(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	insights, err := h.capacity.Insights(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "compute insights")
		return
	}

	c.JSON(http.StatusOK, insights)
}
