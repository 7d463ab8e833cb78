package scheduling_test

import (
	"time"

	"github.com/hibiken/asynq"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"bookly/models"
	"bookly/services/scheduling"
)

type queueSuite struct{}

var _ = gc.Suite(&queueSuite{})

func (s *queueSuite) TestSubmissionTask(c *gc.C) {
	p := models.PendingSubmission{
		BookingID: "b-1",
		ServiceID: "1",
		MasterID:  "1",
		ClientID:  "client-1",
		Date:      "2030-01-08",
		Time:      models.MustTimeOfDay("10:00"),
		QueuedAt:  now,
	}
	task, opts, err := scheduling.NewSubmissionTask(p, time.Minute)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(task.Type(), gc.Equals, scheduling.TypeBookingSubmit)
	c.Check(opts, gc.HasLen, 3)

	parsed, err := scheduling.ParseSubmission(task)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(parsed.BookingID, gc.Equals, "b-1")
	c.Check(parsed.Time, gc.Equals, p.Time)
	c.Check(parsed.QueuedAt.Equal(now), jc.IsTrue)
}

func (s *queueSuite) TestParseSubmissionRejectsBadPayload(c *gc.C) {
	_, err := scheduling.ParseSubmission(asynq.NewTask(scheduling.TypeBookingSubmit, []byte("{")))
	c.Check(err, gc.ErrorMatches, "invalid submission payload: .*")

	_, err = scheduling.ParseSubmission(asynq.NewTask(scheduling.TypeBookingSubmit, []byte(`{"serviceId":"1"}`)))
	c.Check(err, gc.ErrorMatches, "invalid submission payload: missing booking id")
}

func (s *queueSuite) TestNewAsynqQueueDefaultsDelay(c *gc.C) {
	q := scheduling.NewAsynqQueue(nil, 0)
	c.Check(q.Delay, gc.Equals, scheduling.DefaultReplayDelay)
}
