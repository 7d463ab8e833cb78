package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	gc "gopkg.in/check.v1"

	"bookly/services/schederr"
)

type respondSuite struct{}

var _ = gc.Suite(&respondSuite{})

func (s *respondSuite) TestStatusFor(c *gc.C) {
	for kind, want := range map[schederr.Kind]int{
		schederr.Validation:      http.StatusBadRequest,
		schederr.SlotUnavailable: http.StatusConflict,
		schederr.PolicyViolation: http.StatusUnprocessableEntity,
		schederr.Configuration:   http.StatusServiceUnavailable,
		schederr.Transport:       http.StatusServiceUnavailable,
		schederr.Timeout:         http.StatusGatewayTimeout,
		schederr.NotFound:        http.StatusNotFound,
		schederr.Forbidden:       http.StatusForbidden,
		"internal":               http.StatusInternalServerError,
	} {
		c.Check(statusFor(kind), gc.Equals, want, gc.Commentf("kind %s", kind))
	}
}

func (s *respondSuite) TestRespondErrorBody(c *gc.C) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	respondError(ctx, schederr.Policy(schederr.RuleAllowReschedule, "rescheduling is disabled"))
	c.Check(w.Code, gc.Equals, http.StatusUnprocessableEntity)
	c.Check(w.Body.String(), gc.Matches, `.*"rule":"allow_reschedule".*`)

	w = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(w)
	respondError(ctx, errors.New("unclassified"))
	c.Check(w.Code, gc.Equals, http.StatusInternalServerError)
}
