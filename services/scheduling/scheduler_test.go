package scheduling_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock/testclock"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	bookingRepo "bookly/database/repository/booking"
	companyRepo "bookly/database/repository/company"
	"bookly/models"
	"bookly/services/schederr"
	"bookly/services/scheduling"
	"bookly/services/scheduling/mocks"
	"bookly/services/selection"
)

// 2030-01-07 is a Monday. Service "1" (Haircut, 35) is performed by master
// "1" at company "elegant-beauty".
var now = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

var (
	client      = models.Identity{ID: "client-1", Role: models.RoleClient}
	otherClient = models.Identity{ID: "client-2", Role: models.RoleClient}
	salon       = models.Identity{ID: "owner", Role: models.RoleCompany, CompanyID: "elegant-beauty"}
	otherSalon  = models.Identity{ID: "owner-2", Role: models.RoleCompany, CompanyID: "fitlife"}
)

type schedulerSuite struct {
	clock     *testclock.Clock
	bookings  bookingRepo.BookingRepository
	companies companyRepo.CompanyRepository
	sessions  *selection.MemoryStore
}

var _ = gc.Suite(&schedulerSuite{})

func (s *schedulerSuite) SetUpTest(c *gc.C) {
	s.clock = testclock.NewClock(now)
	s.bookings = bookingRepo.NewMemoryBookingRepo()
	s.companies = companyRepo.NewMemoryCompanyRepo()
	c.Assert(companyRepo.Seed(context.Background(), s.companies), jc.ErrorIsNil)
	s.sessions = selection.NewMemoryStore()
}

func (s *schedulerSuite) scheduler(bookings bookingRepo.BookingRepository, queue scheduling.OfflineQueue) *scheduling.Scheduler {
	snapshots := scheduling.NewMemorySnapshotCache(time.Hour)
	snapshots.Clock = s.clock
	return scheduling.New(scheduling.Deps{
		Bookings:  bookings,
		Companies: s.companies,
		Sessions:  s.sessions,
		Snapshots: snapshots,
		Queue:     queue,
		Clock:     s.clock,
	}, scheduling.Options{Location: time.UTC})
}

func strPtr(s string) *string { return &s }

func timePtr(hhmm string) *models.TimeOfDay {
	t := models.MustTimeOfDay(hhmm)
	return &t
}

// selectSlot opens a session for who and selects master 1 on date at hhmm.
func selectSlot(c *gc.C, sched *scheduling.Scheduler, who models.Identity, date, hhmm string) *selection.Session {
	ctx := context.Background()
	sess, err := sched.StartSession(ctx, who, "1")
	c.Assert(err, jc.ErrorIsNil)
	sess, err = sched.UpdateSession(ctx, who, sess.ID, scheduling.SelectionUpdate{
		MasterID: strPtr("1"),
		Date:     strPtr(date),
		Time:     timePtr(hhmm),
	})
	c.Assert(err, jc.ErrorIsNil)
	return sess
}

func book(c *gc.C, sched *scheduling.Scheduler, who models.Identity, date, hhmm string) *models.Booking {
	sess := selectSlot(c, sched, who, date, hhmm)
	res, err := sched.SubmitBooking(context.Background(), who, sess.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(res.Outcome, gc.Equals, models.OutcomeConfirmed)
	return res.Booking
}

func (s *schedulerSuite) TestGetAvailability(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	a, err := sched.GetAvailability(context.Background(), "1", "1", "2030-01-08")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(a.Advisory, jc.IsFalse)
	c.Check(a.Slots, gc.HasLen, 8)
	c.Check(a.Slots[4].String(), gc.Equals, "14:00")
}

func (s *schedulerSuite) TestGetAvailabilityValidation(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()

	_, err := sched.GetAvailability(ctx, "1", "2", "2030-01-08")
	c.Check(errors.Is(err, schederr.ErrValidation), jc.IsTrue)

	_, err = sched.GetAvailability(ctx, "1", "1", "08/01/2030")
	c.Check(errors.Is(err, schederr.ErrValidation), jc.IsTrue)

	_, err = sched.GetAvailability(ctx, "99", "1", "2030-01-08")
	c.Check(errors.Is(err, schederr.ErrNotFound), jc.IsTrue)
}

func (s *schedulerSuite) TestGetAvailabilityBadHoursIsConfiguration(c *gc.C) {
	ctx := context.Background()
	company, err := s.companies.GetCompany(ctx, "elegant-beauty")
	c.Assert(err, jc.ErrorIsNil)
	company.WorkingHours.Break = &models.BreakWindow{Start: models.MustTimeOfDay("20:00"), End: models.MustTimeOfDay("21:00")}
	_, err = s.companies.UpdateSettings(ctx, *company)
	c.Assert(err, jc.ErrorIsNil)

	_, err = s.scheduler(s.bookings, nil).GetAvailability(ctx, "1", "1", "2030-01-08")
	c.Check(errors.Is(err, schederr.ErrConfiguration), jc.IsTrue)
}

func (s *schedulerSuite) TestAdvisoryAvailabilityFromSnapshot(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	repo := mocks.NewMockBookingRepository(ctrl)
	sched := s.scheduler(repo, nil)
	ctx := context.Background()

	taken := models.Booking{ID: "b0", MasterID: "1", Date: "2030-01-08", Time: models.MustTimeOfDay("10:00"), Status: models.StatusConfirmed}
	gomock.InOrder(
		repo.EXPECT().FetchMasterDay(gomock.Any(), "1", "2030-01-08").Return([]models.Booking{taken}, nil),
		repo.EXPECT().FetchMasterDay(gomock.Any(), "1", "2030-01-08").Return(nil, errors.New("connection refused")),
	)

	live, err := sched.GetAvailability(ctx, "1", "1", "2030-01-08")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(live.Slots, gc.HasLen, 7)

	s.clock.Advance(time.Minute)
	advisory, err := sched.GetAvailability(ctx, "1", "1", "2030-01-08")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(advisory.Advisory, jc.IsTrue)
	c.Check(advisory.Slots, jc.DeepEquals, live.Slots)
	c.Assert(advisory.AsOf, gc.NotNil)
	c.Check(advisory.AsOf.Equal(now), jc.IsTrue)
}

func (s *schedulerSuite) TestNoSnapshotPropagatesTransport(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	repo := mocks.NewMockBookingRepository(ctrl)
	repo.EXPECT().FetchMasterDay(gomock.Any(), "1", "2030-01-09").Return(nil, errors.New("connection refused"))

	_, err := s.scheduler(repo, nil).GetAvailability(context.Background(), "1", "1", "2030-01-09")
	c.Check(errors.Is(err, schederr.ErrTransport), jc.IsTrue)
}

func (s *schedulerSuite) TestTimeoutIsClassified(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	repo := mocks.NewMockBookingRepository(ctrl)
	repo.EXPECT().FetchMasterDay(gomock.Any(), "1", "2030-01-09").Return(nil, context.DeadlineExceeded)

	_, err := s.scheduler(repo, nil).GetAvailability(context.Background(), "1", "1", "2030-01-09")
	c.Check(errors.Is(err, schederr.ErrTimeout), jc.IsTrue)
}

func (s *schedulerSuite) TestSessionFlowAndSubmit(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()

	sess := selectSlot(c, sched, client, "2030-01-08", "10:00")
	c.Check(sess.Slots, gc.HasLen, 8)

	complete, _, err := sched.SessionComplete(ctx, client, sess.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(complete, jc.IsTrue)

	res, err := sched.SubmitBooking(ctx, client, sess.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(res.Outcome, gc.Equals, models.OutcomeConfirmed)
	c.Check(res.Booking.Status, gc.Equals, models.StatusPending)
	c.Check(res.Booking.CompanyID, gc.Equals, "elegant-beauty")
	c.Check(res.BookingID, gc.Equals, res.Booking.ID)

	_, err = sched.GetSession(ctx, client, sess.ID)
	c.Check(errors.Is(err, schederr.ErrNotFound), jc.IsTrue)

	a, err := sched.GetAvailability(ctx, "1", "1", "2030-01-08")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(a.Slots, gc.HasLen, 7)
}

func (s *schedulerSuite) TestSubmitIncompleteSession(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	sess, err := sched.StartSession(ctx, client, "1")
	c.Assert(err, jc.ErrorIsNil)

	_, err = sched.SubmitBooking(ctx, client, sess.ID)
	c.Check(errors.Is(err, schederr.ErrValidation), jc.IsTrue)
}

func (s *schedulerSuite) TestSessionsArePrivate(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	sess := selectSlot(c, sched, client, "2030-01-08", "10:00")

	_, err := sched.SubmitBooking(ctx, otherClient, sess.ID)
	c.Check(errors.Is(err, schederr.ErrNotFound), jc.IsTrue)

	_, err = sched.StartSession(ctx, salon, "1")
	c.Check(errors.Is(err, schederr.ErrForbidden), jc.IsTrue)

	c.Assert(sched.DiscardSession(ctx, client, sess.ID), jc.ErrorIsNil)
	_, err = sched.GetSession(ctx, client, sess.ID)
	c.Check(errors.Is(err, schederr.ErrNotFound), jc.IsTrue)
}

func (s *schedulerSuite) TestUpdateSessionRejectsForeignMaster(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	sess, err := sched.StartSession(ctx, client, "1")
	c.Assert(err, jc.ErrorIsNil)

	_, err = sched.UpdateSession(ctx, client, sess.ID, scheduling.SelectionUpdate{MasterID: strPtr("2")})
	c.Check(errors.Is(err, schederr.ErrValidation), jc.IsTrue)
}

func (s *schedulerSuite) TestSecondSubmitForSameSlotLoses(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()

	first := selectSlot(c, sched, client, "2030-01-08", "10:00")
	second := selectSlot(c, sched, otherClient, "2030-01-08", "10:00")

	_, err := sched.SubmitBooking(ctx, client, first.ID)
	c.Assert(err, jc.ErrorIsNil)

	_, err = sched.SubmitBooking(ctx, otherClient, second.ID)
	c.Check(errors.Is(err, schederr.ErrSlotUnavailable), jc.IsTrue)

	// The loser keeps the session and can pick another slot.
	_, err = sched.GetSession(ctx, otherClient, second.ID)
	c.Check(err, jc.ErrorIsNil)
}

func (s *schedulerSuite) TestConcurrentSubmitsOneWinner(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	const clients = 8

	ids := make([]models.Identity, clients)
	sessions := make([]*selection.Session, clients)
	for i := range ids {
		ids[i] = models.Identity{ID: fmt.Sprintf("client-%d", i), Role: models.RoleClient}
		sessions[i] = selectSlot(c, sched, ids[i], "2030-01-08", "15:00")
	}

	var wg sync.WaitGroup
	errs := make([]error, clients)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sched.SubmitBooking(context.Background(), ids[i], sessions[i].ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		c.Check(errors.Is(err, schederr.ErrSlotUnavailable), jc.IsTrue)
	}
	c.Check(wins, gc.Equals, 1)
}

func (s *schedulerSuite) offlineScheduler(c *gc.C, ctrl *gomock.Controller) (*scheduling.Scheduler, *mocks.MockBookingRepository, *mocks.MockOfflineQueue) {
	repo := mocks.NewMockBookingRepository(ctrl)
	queue := mocks.NewMockOfflineQueue(ctrl)
	gomock.InOrder(
		// Slot prefetch while selecting.
		repo.EXPECT().FetchMasterDay(gomock.Any(), "1", "2030-01-08").Return(nil, nil),
		// Re-validation at submission.
		repo.EXPECT().FetchMasterDay(gomock.Any(), "1", "2030-01-08").Return(nil, errors.New("connection reset")),
	)
	return s.scheduler(repo, queue), repo, queue
}

func (s *schedulerSuite) TestSubmitOfflineQueuesOnce(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	sched, _, queue := s.offlineScheduler(c, ctrl)

	var queued models.PendingSubmission
	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.PendingSubmission) error {
			queued = p
			return nil
		}).Times(1)

	sess := selectSlot(c, sched, client, "2030-01-08", "10:00")
	res, err := sched.SubmitBooking(context.Background(), client, sess.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(res.Outcome, gc.Equals, models.OutcomeOfflinePending)
	c.Check(res.Booking, gc.IsNil)
	c.Check(res.BookingID, gc.Equals, queued.BookingID)
	c.Check(queued.MasterID, gc.Equals, "1")
	c.Check(queued.Time.String(), gc.Equals, "10:00")
	c.Check(queued.QueuedAt.Equal(now), jc.IsTrue)
}

func (s *schedulerSuite) TestSubmitOfflineQueueFailureReportsTransport(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	sched, _, queue := s.offlineScheduler(c, ctrl)
	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	sess := selectSlot(c, sched, client, "2030-01-08", "10:00")
	_, err := sched.SubmitBooking(context.Background(), client, sess.ID)
	c.Check(errors.Is(err, schederr.ErrTransport), jc.IsTrue)

	// The session survives for a manual retry.
	_, err = sched.GetSession(context.Background(), client, sess.ID)
	c.Check(err, jc.ErrorIsNil)
}

func (s *schedulerSuite) TestReplaySubmission(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	p := models.PendingSubmission{
		BookingID: "queued-1",
		ServiceID: "1",
		MasterID:  "1",
		ClientID:  "client-1",
		Date:      "2030-01-08",
		Time:      models.MustTimeOfDay("11:00"),
	}

	b, err := sched.ReplaySubmission(ctx, p)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(b.ID, gc.Equals, "queued-1")

	// The first attempt may have landed after all; replaying returns it.
	again, err := sched.ReplaySubmission(ctx, p)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(again.ID, gc.Equals, "queued-1")

	lost := p
	lost.BookingID = "queued-2"
	lost.ClientID = "client-2"
	_, err = sched.ReplaySubmission(ctx, lost)
	c.Check(errors.Is(err, schederr.ErrSlotUnavailable), jc.IsTrue)
}

func (s *schedulerSuite) TestRescheduleAndCancelAuthorization(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	b := book(c, sched, client, "2030-01-09", "10:00")

	_, err := sched.Reschedule(ctx, otherClient, b.ID, "2030-01-09", models.MustTimeOfDay("11:00"))
	c.Check(errors.Is(err, schederr.ErrForbidden), jc.IsTrue)
	_, err = sched.Cancel(ctx, otherSalon, b.ID)
	c.Check(errors.Is(err, schederr.ErrForbidden), jc.IsTrue)

	moved, err := sched.Reschedule(ctx, client, b.ID, "2030-01-09", models.MustTimeOfDay("11:00"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(moved.Time.String(), gc.Equals, "11:00")

	a, err := sched.GetAvailability(ctx, "1", "1", "2030-01-09")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(a.Slots[1].String(), gc.Equals, "10:00")
	c.Check(a.Slots[2].String(), gc.Equals, "12:00")

	first, err := sched.Cancel(ctx, salon, b.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(first.PenaltyApplied, jc.IsFalse)

	second, err := sched.Cancel(ctx, client, b.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(second.AlreadyCancelled, jc.IsTrue)
}

func (s *schedulerSuite) TestCancelSoonAppliesPenalty(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	b := book(c, sched, client, "2030-01-07", "10:00")

	outcome, err := sched.Cancel(context.Background(), client, b.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(outcome.PenaltyApplied, jc.IsTrue)
	c.Check(outcome.PenaltyAmount, gc.Equals, "3.50")
}

func (s *schedulerSuite) TestConfirm(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	b := book(c, sched, client, "2030-01-09", "10:00")

	_, err := sched.Confirm(ctx, client, b.ID)
	c.Check(errors.Is(err, schederr.ErrForbidden), jc.IsTrue)
	_, err = sched.Confirm(ctx, otherSalon, b.ID)
	c.Check(errors.Is(err, schederr.ErrForbidden), jc.IsTrue)

	confirmed, err := sched.Confirm(ctx, salon, b.ID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(confirmed.Status, gc.Equals, models.StatusConfirmed)
}

func (s *schedulerSuite) TestListBookings(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	book(c, sched, client, "2030-01-09", "10:00")
	book(c, sched, otherClient, "2030-01-09", "11:00")

	mine, err := sched.ListBookings(ctx, client)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(mine, gc.HasLen, 1)
	c.Check(mine[0].ClientID, gc.Equals, "client-1")

	all, err := sched.ListBookings(ctx, salon)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(all, gc.HasLen, 2)

	none, err := sched.ListBookings(ctx, otherSalon)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(none, gc.HasLen, 0)
}

func (s *schedulerSuite) TestLockWaitIsBoundedByTimeout(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	repo := mocks.NewMockBookingRepository(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})
	repo.EXPECT().GetBooking(gomock.Any(), "b1").DoAndReturn(
		func(ctx context.Context, id string) (*models.Booking, error) {
			close(entered)
			<-release
			return nil, bookingRepo.ErrNotFound
		}).Times(1)

	sched := scheduling.New(scheduling.Deps{
		Bookings:  repo,
		Companies: s.companies,
		Sessions:  s.sessions,
		Snapshots: scheduling.NewMemorySnapshotCache(time.Hour),
		Clock:     s.clock,
	}, scheduling.Options{Location: time.UTC, Timeout: 50 * time.Millisecond})

	first := make(chan error, 1)
	go func() {
		_, err := sched.Cancel(context.Background(), client, "b1")
		first <- err
	}()
	<-entered

	// The first cancel holds the booking; the second gives up waiting.
	_, err := sched.Cancel(context.Background(), client, "b1")
	c.Check(errors.Is(err, schederr.ErrTimeout), jc.IsTrue)

	close(release)
	c.Check(errors.Is(<-first, schederr.ErrNotFound), jc.IsTrue)
}

func (s *schedulerSuite) TestCompleteElapsed(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()
	done := book(c, sched, client, "2030-01-07", "10:00")
	later := book(c, sched, client, "2030-01-07", "16:00")
	pending := book(c, sched, otherClient, "2030-01-07", "11:00")
	for _, id := range []string{done.ID, later.ID} {
		_, err := sched.Confirm(ctx, salon, id)
		c.Assert(err, jc.ErrorIsNil)
	}

	s.clock.Advance(4 * time.Hour) // 12:00
	n, err := sched.CompleteElapsed(ctx)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(n, gc.Equals, 1)

	for id, want := range map[string]models.BookingStatus{
		done.ID:    models.StatusCompleted,
		later.ID:   models.StatusConfirmed,
		pending.ID: models.StatusPending,
	} {
		b, err := s.bookings.GetBooking(ctx, id)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(b.Status, gc.Equals, want)
	}
}

func (s *schedulerSuite) TestCompanySettings(c *gc.C) {
	sched := s.scheduler(s.bookings, nil)
	ctx := context.Background()

	_, err := sched.CompanySettings(ctx, client)
	c.Check(errors.Is(err, schederr.ErrForbidden), jc.IsTrue)

	company, err := sched.CompanySettings(ctx, salon)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(company.Name, gc.Equals, "Elegant Beauty Salon")

	bad := models.CancellationPolicy{DeductionType: models.DeductionPercentage, DeductionValue: 150}
	_, err = sched.UpdateCompanySettings(ctx, salon, models.CompanySettingsUpdate{CancellationPolicy: &bad})
	c.Check(errors.Is(err, schederr.ErrValidation), jc.IsTrue)

	granularity := 30
	updated, err := sched.UpdateCompanySettings(ctx, salon, models.CompanySettingsUpdate{SlotGranularityMinutes: &granularity})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(updated.SlotGranularityMinutes, gc.Equals, 30)

	a, err := sched.GetAvailability(ctx, "1", "1", "2030-01-08")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(a.Slots, gc.HasLen, 16)
}
