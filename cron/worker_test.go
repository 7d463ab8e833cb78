package cron

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/juju/clock/testclock"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/zap"
	gc "gopkg.in/check.v1"

	"bookly/models"
	"bookly/services/scheduling"
)

type fakeJobs struct {
	mu        sync.Mutex
	replayed  []models.PendingSubmission
	replayErr error
	sweepErr  error
	sweeps    chan struct{}
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{sweeps: make(chan struct{}, 10)}
}

func (f *fakeJobs) ReplaySubmission(ctx context.Context, p models.PendingSubmission) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replayed = append(f.replayed, p)
	if f.replayErr != nil {
		return nil, f.replayErr
	}
	return &models.Booking{ID: p.BookingID, CreatedAt: p.QueuedAt}, nil
}

func (f *fakeJobs) CompleteElapsed(ctx context.Context) (int, error) {
	f.sweeps <- struct{}{}
	return 1, f.sweepErr
}

type workerSuite struct{}

var _ = gc.Suite(&workerSuite{})

func submissionTask(c *gc.C, id string) *asynq.Task {
	payload, err := json.Marshal(models.PendingSubmission{BookingID: id, ServiceID: "1", MasterID: "1", Date: "2030-01-08"})
	c.Assert(err, jc.ErrorIsNil)
	return asynq.NewTask(scheduling.TypeBookingSubmit, payload)
}

func (s *workerSuite) TestSubmissionReplayed(c *gc.C) {
	jobs := newFakeJobs()
	err := handleSubmissionTask(jobs, zap.NewNop())(context.Background(), submissionTask(c, "b-1"))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(jobs.replayed, gc.HasLen, 1)
	c.Check(jobs.replayed[0].BookingID, gc.Equals, "b-1")
}

func (s *workerSuite) TestFailedReplayIsNotRetried(c *gc.C) {
	jobs := newFakeJobs()
	jobs.replayErr = errors.New("slot taken")
	err := handleSubmissionTask(jobs, zap.NewNop())(context.Background(), submissionTask(c, "b-1"))
	c.Check(errors.Is(err, asynq.SkipRetry), jc.IsTrue)
	c.Check(err, gc.ErrorMatches, "replay of booking b-1 failed: slot taken: .*")
}

func (s *workerSuite) TestBadPayloadIsDropped(c *gc.C) {
	jobs := newFakeJobs()
	err := handleSubmissionTask(jobs, zap.NewNop())(context.Background(), asynq.NewTask(scheduling.TypeBookingSubmit, []byte("nope")))
	c.Check(errors.Is(err, asynq.SkipRetry), jc.IsTrue)
	c.Check(jobs.replayed, gc.HasLen, 0)
}

func (s *workerSuite) TestSweepTask(c *gc.C) {
	jobs := newFakeJobs()
	handler := handleSweepTask(jobs, zap.NewNop())
	c.Check(handler(context.Background(), asynq.NewTask(scheduling.TypeCompleteSweep, nil)), jc.ErrorIsNil)

	jobs.sweepErr = errors.New("store down")
	c.Check(handler(context.Background(), asynq.NewTask(scheduling.TypeCompleteSweep, nil)), gc.ErrorMatches, "store down")
}

func (s *workerSuite) TestLocalSweepRunsEveryInterval(c *gc.C) {
	jobs := newFakeJobs()
	clk := testclock.NewClock(time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartLocalSweep(ctx, clk, time.Minute, jobs, zap.NewNop())
	for i := 0; i < 2; i++ {
		c.Assert(clk.WaitAdvance(time.Minute, time.Second, 1), jc.ErrorIsNil)
		select {
		case <-jobs.sweeps:
		case <-time.After(time.Second):
			c.Fatalf("sweep %d did not run", i+1)
		}
	}
}
