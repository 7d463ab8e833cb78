package handlers

import (
	"bookly/services/scheduling"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers registered by routes.
type HandlerBundle struct {
	Scheduler *scheduling.Scheduler

	// Availability
	GetAvailability gin.HandlerFunc

	// Selection sessions
	StartSession    gin.HandlerFunc
	GetSession      gin.HandlerFunc
	UpdateSession   gin.HandlerFunc
	SessionComplete gin.HandlerFunc
	DiscardSession  gin.HandlerFunc
	SubmitBooking   gin.HandlerFunc

	// Bookings
	ListBookings      gin.HandlerFunc
	RescheduleBooking gin.HandlerFunc
	CancelBooking     gin.HandlerFunc
	ConfirmBooking    gin.HandlerFunc

	// Company settings
	GetCompanySettings    gin.HandlerFunc
	UpdateCompanySettings gin.HandlerFunc

	Health gin.HandlerFunc
}

// NewHandlerBundle wires every handler to the scheduler.
func NewHandlerBundle(s *scheduling.Scheduler) *HandlerBundle {
	h := &schedulingHandler{scheduler: s}
	return &HandlerBundle{
		Scheduler: s,

		GetAvailability: h.GetAvailability,

		StartSession:    h.StartSession,
		GetSession:      h.GetSession,
		UpdateSession:   h.UpdateSession,
		SessionComplete: h.SessionComplete,
		DiscardSession:  h.DiscardSession,
		SubmitBooking:   h.SubmitBooking,

		ListBookings:      h.ListBookings,
		RescheduleBooking: h.RescheduleBooking,
		CancelBooking:     h.CancelBooking,
		ConfirmBooking:    h.ConfirmBooking,

		GetCompanySettings:    h.GetCompanySettings,
		UpdateCompanySettings: h.UpdateCompanySettings,

		Health: HealthHandler,
	}
}

type schedulingHandler struct {
	scheduler *scheduling.Scheduler
}
