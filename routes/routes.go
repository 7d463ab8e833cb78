package routes

import (
	"time"

	"bookly/handlers"
	"bookly/middleware"
	"bookly/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers the health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterAvailabilityRoutes registers slot lookups. Any authenticated
// caller may read availability.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/services")
	{
		api.Use(middleware.IdentityMiddleware())
		api.GET("/:serviceID/masters/:masterID/availability", hb.GetAvailability)
	}
}

// RegisterBookingRoutes sets up the client selection flow.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.Use(middleware.IdentityMiddleware(), middleware.RequireRole(models.RoleClient))
		bookingGroup.POST("/session", hb.StartSession)
		bookingGroup.GET("/session/:sessionID", hb.GetSession)
		bookingGroup.PATCH("/session/:sessionID", hb.UpdateSession)
		bookingGroup.GET("/session/:sessionID/complete", hb.SessionComplete)
		bookingGroup.DELETE("/session/:sessionID", hb.DiscardSession)
		bookingGroup.POST("/session/:sessionID/submit", hb.SubmitBooking)
	}
}

// RegisterBookingManagementRoutes sets up endpoints for existing bookings,
// shared by clients and companies.
func RegisterBookingManagementRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.IdentityMiddleware())
		api.GET("", hb.ListBookings)
		api.PUT("/:bookingID/reschedule", hb.RescheduleBooking)
		api.DELETE("/:bookingID", hb.CancelBooking)
		api.PUT("/:bookingID/confirm", middleware.RequireRole(models.RoleCompany), hb.ConfirmBooking)
	}
}

// RegisterCompanyRoutes sets up the company settings form.
func RegisterCompanyRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/company")
	{
		api.Use(middleware.IdentityMiddleware(), middleware.RequireRole(models.RoleCompany))
		api.GET("/settings", hb.GetCompanySettings)
		api.PUT("/settings", hb.UpdateCompanySettings)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterBookingManagementRoutes(r, hb)
	RegisterCompanyRoutes(r, hb)
}
