package handlers

import (
	"net/http"

	"bookly/models"

	"github.com/gin-gonic/gin"
)

func (h *schedulingHandler) GetCompanySettings(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	company, err := h.scheduler.CompanySettings(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// UpdateCompanySettings replaces working hours, cancellation policy or slot
// granularity. Omitted sections are kept.
func (h *schedulingHandler) UpdateCompanySettings(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var update models.CompanySettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badInput(c, err)
		return
	}

	company, err := h.scheduler.UpdateCompanySettings(c.Request.Context(), who, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}
