package handlers

import (
	"net/http"

	"bookly/middleware"
	"bookly/models"
	"bookly/services/schederr"
	"bookly/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a failure kind onto an HTTP status.
func statusFor(kind schederr.Kind) int {
	switch kind {
	case schederr.Validation:
		return http.StatusBadRequest
	case schederr.SlotUnavailable:
		return http.StatusConflict
	case schederr.PolicyViolation:
		return http.StatusUnprocessableEntity
	case schederr.Configuration, schederr.Transport:
		return http.StatusServiceUnavailable
	case schederr.Timeout:
		return http.StatusGatewayTimeout
	case schederr.NotFound:
		return http.StatusNotFound
	case schederr.Forbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes the user-facing form of err.
func respondError(c *gin.Context, err error) {
	failure := scheduling.Describe(err)
	status := statusFor(failure.Kind)

	logger := getLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("kind", string(failure.Kind)), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("kind", string(failure.Kind)), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": failure.Message, "details": failure})
}

func badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
}

// identity returns the caller set by the identity middleware. A missing
// identity is a wiring bug, reported as 401.
func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return id, ok
}
