package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAvailability lists the free slots of a master for a service on ?date=.
func (h *schedulingHandler) GetAvailability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": "date query parameter is required"})
		return
	}

	a, err := h.scheduler.GetAvailability(c.Request.Context(), c.Param("serviceID"), c.Param("masterID"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
