package handlers

import (
	"net/http"

	"bookly/models"

	"github.com/gin-gonic/gin"
)

func (h *schedulingHandler) ListBookings(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	bookings, err := h.scheduler.ListBookings(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// RescheduleBooking moves a booking to {date, time}.
func (h *schedulingHandler) RescheduleBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var input struct {
		Date string            `json:"date" binding:"required"`
		Time *models.TimeOfDay `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	b, err := h.scheduler.Reschedule(c.Request.Context(), who, c.Param("bookingID"), input.Date, *input.Time)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *schedulingHandler) CancelBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	outcome, err := h.scheduler.Cancel(c.Request.Context(), who, c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *schedulingHandler) ConfirmBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	b, err := h.scheduler.Confirm(c.Request.Context(), who, c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
