package handlers

import (
	"net/http"

	"bookly/models"
	"bookly/services/scheduling"

	"github.com/gin-gonic/gin"
)

// StartSession opens a selection session for a service.
func (h *schedulingHandler) StartSession(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var input struct {
		ServiceID string `json:"serviceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	sess, err := h.scheduler.StartSession(c.Request.Context(), who, input.ServiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *schedulingHandler) GetSession(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	sess, err := h.scheduler.GetSession(c.Request.Context(), who, c.Param("sessionID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateSession applies a partial selection: masterId, date, time or reset.
func (h *schedulingHandler) UpdateSession(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var update scheduling.SelectionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badInput(c, err)
		return
	}

	sess, err := h.scheduler.UpdateSession(c.Request.Context(), who, c.Param("sessionID"), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// SessionComplete tells the UI whether the submit button can be enabled.
func (h *schedulingHandler) SessionComplete(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	complete, sess, err := h.scheduler.SessionComplete(c.Request.Context(), who, c.Param("sessionID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complete": complete, "session": sess})
}

func (h *schedulingHandler) DiscardSession(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	if err := h.scheduler.DiscardSession(c.Request.Context(), who, c.Param("sessionID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitBooking answers 201 when the store acknowledged the booking and 202
// when the attempt was queued for replay.
func (h *schedulingHandler) SubmitBooking(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	res, err := h.scheduler.SubmitBooking(c.Request.Context(), who, c.Param("sessionID"))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Outcome == models.OutcomeOfflinePending {
		status = http.StatusAccepted
	}
	c.JSON(status, res)
}
