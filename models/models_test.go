package models_test

import (
	"encoding/json"
	"time"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"bookly/models"
)

type modelsSuite struct{}

var _ = gc.Suite(&modelsSuite{})

func (s *modelsSuite) TestParseTimeOfDay(c *gc.C) {
	t, err := models.ParseTimeOfDay("09:30")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(int(t), gc.Equals, 570)
	c.Check(t.String(), gc.Equals, "09:30")

	for _, bad := range []string{"9:30", "24:00", "12:60", "noon", "12-30", ""} {
		_, err := models.ParseTimeOfDay(bad)
		c.Check(err, gc.NotNil, gc.Commentf("input %q", bad))
	}
}

func (s *modelsSuite) TestTimeOfDayJSON(c *gc.C) {
	data, err := json.Marshal(struct {
		T models.TimeOfDay `json:"t"`
	}{T: models.MustTimeOfDay("14:00")})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, `{"t":"14:00"}`)

	var out struct {
		T models.TimeOfDay `json:"t"`
	}
	c.Assert(json.Unmarshal([]byte(`{"t":"07:15"}`), &out), jc.ErrorIsNil)
	c.Check(out.T, gc.Equals, models.MustTimeOfDay("07:15"))
	c.Check(json.Unmarshal([]byte(`{"t":715}`), &out), gc.NotNil)
}

func (s *modelsSuite) TestAppointmentStart(c *gc.C) {
	start, err := models.AppointmentStart("2026-10-14", models.MustTimeOfDay("16:00"), time.UTC)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(start, gc.Equals, time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC))

	_, err = models.AppointmentStart("14.10.2026", 0, time.UTC)
	c.Check(err, gc.ErrorMatches, `date "14.10.2026" must be in YYYY-MM-DD format`)
}

func (s *modelsSuite) TestBookingStatusJSON(c *gc.C) {
	var st models.BookingStatus
	c.Assert(json.Unmarshal([]byte(`"confirmed"`), &st), jc.ErrorIsNil)
	c.Check(st, gc.Equals, models.StatusConfirmed)
	c.Check(json.Unmarshal([]byte(`"rescheduled"`), &st), gc.ErrorMatches, `unknown booking status "rescheduled"`)
}

func (s *modelsSuite) TestTransitions(c *gc.C) {
	c.Check(models.CanTransition(models.StatusPending, models.StatusConfirmed), jc.IsTrue)
	c.Check(models.CanTransition(models.StatusConfirmed, models.StatusCompleted), jc.IsTrue)
	c.Check(models.CanTransition(models.StatusConfirmed, models.StatusPending), jc.IsTrue)
	c.Check(models.CanTransition(models.StatusPending, models.StatusCompleted), jc.IsFalse)
	c.Check(models.CanTransition(models.StatusCancelled, models.StatusPending), jc.IsFalse)
	c.Check(models.CanTransition(models.StatusCompleted, models.StatusCancelled), jc.IsFalse)
}

func (s *modelsSuite) TestDefaultWorkingHoursValid(c *gc.C) {
	c.Check(models.DefaultWorkingHours().Validate(), jc.ErrorIsNil)
}

func (s *modelsSuite) TestWorkingHoursValidate(c *gc.C) {
	hours := models.DefaultWorkingHours()
	hours.Break = &models.BreakWindow{Start: models.MustTimeOfDay("14:00"), End: models.MustTimeOfDay("13:00")}
	c.Check(hours.Validate(), gc.ErrorMatches, "break: start 14:00 must be before end 13:00")

	hours = models.DefaultWorkingHours()
	hours.Days["friday"] = models.DayHours{Enabled: true, Start: models.MustTimeOfDay("14:00"), End: models.MustTimeOfDay("18:00")}
	c.Check(hours.Validate(), gc.ErrorMatches, "friday: break 13:00-14:00 falls outside 14:00-18:00")

	// A disabled day is not checked.
	hours = models.DefaultWorkingHours()
	hours.Days["sunday"] = models.DayHours{Enabled: false, Start: models.MustTimeOfDay("18:00"), End: models.MustTimeOfDay("09:00")}
	c.Check(hours.Validate(), jc.ErrorIsNil)

	hours.Days["someday"] = models.DayHours{}
	c.Check(hours.Validate(), gc.ErrorMatches, "someday: unknown weekday")
}

func (s *modelsSuite) TestCancellationPolicyValidate(c *gc.C) {
	c.Check(models.DefaultCancellationPolicy().Validate(), jc.ErrorIsNil)

	p := models.DefaultCancellationPolicy()
	p.DeductionValue = -1
	c.Check(p.Validate(), gc.ErrorMatches, "deductionValue: must not be negative")

	p = models.DefaultCancellationPolicy()
	p.DeductionValue = 150
	c.Check(p.Validate(), gc.ErrorMatches, "deductionValue: percentage must not exceed 100")

	p.DeductionType = models.DeductionFixed
	c.Check(p.Validate(), jc.ErrorIsNil)

	p.DeductionType = "credits"
	c.Check(p.Validate(), gc.ErrorMatches, `deductionType: unknown deduction type "credits"`)
}

func (s *modelsSuite) TestSettingsUpdateApply(c *gc.C) {
	company := models.Company{ID: "c1", WorkingHours: models.DefaultWorkingHours(), CancellationPolicy: models.DefaultCancellationPolicy()}
	granularity := 30
	policy := models.DefaultCancellationPolicy()
	policy.AllowReschedule = false

	updated, err := models.CompanySettingsUpdate{CancellationPolicy: &policy, SlotGranularityMinutes: &granularity}.Apply(company)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(updated.CancellationPolicy.AllowReschedule, jc.IsFalse)
	c.Check(updated.SlotGranularityMinutes, gc.Equals, 30)

	bad := 0
	_, err = models.CompanySettingsUpdate{SlotGranularityMinutes: &bad}.Apply(company)
	c.Check(err, gc.ErrorMatches, "slotGranularityMinutes: must be between 5 and 1440")
}

func (s *modelsSuite) TestIdentityCanManage(c *gc.C) {
	b := models.Booking{ClientID: "u1", CompanyID: "c1"}

	c.Check(models.Identity{ID: "u1", Role: models.RoleClient}.CanManage(b), jc.IsTrue)
	c.Check(models.Identity{ID: "u2", Role: models.RoleClient}.CanManage(b), jc.IsFalse)
	c.Check(models.Identity{ID: "owner", Role: models.RoleCompany, CompanyID: "c1"}.CanManage(b), jc.IsTrue)
	c.Check(models.Identity{ID: "owner", Role: models.RoleCompany, CompanyID: "c2"}.CanManage(b), jc.IsFalse)
}
