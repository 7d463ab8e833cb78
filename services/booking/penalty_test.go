package booking_test

import (
	"time"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"bookly/models"
	"bookly/services/booking"
)

type penaltySuite struct{}

var _ = gc.Suite(&penaltySuite{})

func (s *penaltySuite) TestPercentage(c *gc.C) {
	policy := models.DefaultCancellationPolicy()
	p := booking.ComputePenalty(policy, 55, 2*time.Hour)
	c.Check(p.Applied, jc.IsTrue)
	c.Check(p.Amount.StringFixed(2), gc.Equals, "5.50")
	c.Check(p.Type, gc.Equals, models.DeductionPercentage)
}

func (s *penaltySuite) TestPercentageRoundsToCents(c *gc.C) {
	policy := models.DefaultCancellationPolicy()
	policy.DeductionValue = 15
	p := booking.ComputePenalty(policy, 33.33, time.Hour)
	c.Check(p.Amount.StringFixed(2), gc.Equals, "5.00")
}

func (s *penaltySuite) TestFixed(c *gc.C) {
	policy := models.DefaultCancellationPolicy()
	policy.DeductionType = models.DeductionFixed
	policy.DeductionValue = 12.5
	p := booking.ComputePenalty(policy, 120, 0)
	c.Check(p.Applied, jc.IsTrue)
	c.Check(p.Amount.StringFixed(2), gc.Equals, "12.50")
}

func (s *penaltySuite) TestBoundary(c *gc.C) {
	policy := models.DefaultCancellationPolicy()
	c.Check(booking.ComputePenalty(policy, 35, 24*time.Hour).Applied, jc.IsFalse)
	c.Check(booking.ComputePenalty(policy, 35, 24*time.Hour-time.Second).Applied, jc.IsTrue)
	c.Check(booking.ComputePenalty(policy, 35, 25*time.Hour).Applied, jc.IsFalse)
}

func (s *penaltySuite) TestZeroDeductionIsNoPenalty(c *gc.C) {
	policy := models.DefaultCancellationPolicy()
	policy.DeductionValue = 0
	c.Check(booking.ComputePenalty(policy, 35, time.Hour).Applied, jc.IsFalse)

	policy = models.DefaultCancellationPolicy()
	policy.MinCancelHours = 0
	c.Check(booking.ComputePenalty(policy, 35, time.Hour).Applied, jc.IsFalse)
}

func (s *penaltySuite) TestPastAppointmentStillOwes(c *gc.C) {
	policy := models.DefaultCancellationPolicy()
	c.Check(booking.ComputePenalty(policy, 35, -time.Hour).Applied, jc.IsTrue)
}
