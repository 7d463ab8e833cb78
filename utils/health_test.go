package utils_test

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"bookly/utils"
)

type healthSuite struct{}

var _ = gc.Suite(&healthSuite{})

func (s *healthSuite) TestNoDependenciesIsHealthy(c *gc.C) {
	clk := testclock.NewClock(time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC))
	status := utils.CheckHealth(context.Background(), clk, nil, nil)
	c.Check(status.Mongo, gc.IsNil)
	c.Check(status.Redis, gc.HasLen, 0)
	c.Check(status.Healthy(), jc.IsTrue)
	c.Check(status.CheckedAt.Equal(clk.Now()), jc.IsTrue)
	c.Check(utils.GetHealthStatus().CheckedAt.Equal(clk.Now()), jc.IsTrue)
}

func (s *healthSuite) TestUnhealthyWhenAnyDependencyFails(c *gc.C) {
	down := false
	c.Check(utils.HealthStatus{Mongo: &down}.Healthy(), jc.IsFalse)
	c.Check(utils.HealthStatus{Redis: []bool{true, false}}.Healthy(), jc.IsFalse)
}
