package scheduling

import (
	"context"
	"time"

	"bookly/models"
	"bookly/services/booking"
	"bookly/services/schederr"
	"bookly/services/selection"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitBooking turns a complete session into a booking. The booking id is
// fixed before the first attempt. If the store cannot be reached the attempt
// is queued once under that id and OFFLINE_PENDING is returned; nothing is
// reported as booked until the store has acknowledged it.
func (s *Scheduler) SubmitBooking(ctx context.Context, identity models.Identity, sessionID string) (models.SubmitResult, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, "session:" + sessionID)
	if err != nil {
		return models.SubmitResult{}, err
	}
	defer unlock()

	sess, err := s.loadSession(ctx, identity, sessionID)
	if err != nil {
		return models.SubmitResult{}, err
	}
	if !sess.Selected() {
		return models.SubmitResult{}, schederr.New(schederr.Validation, "choose a master, a date and a time before booking")
	}

	complete, err := sess.IsComplete(ctx, s, s.Clock, s.Options.Staleness)
	switch {
	case schederr.IsRemote(err):
		// The slot cannot be checked; the create below decides.
	case err != nil:
		return models.SubmitResult{}, err
	case !complete:
		s.saveSession(ctx, sess)
		return models.SubmitResult{}, schederr.New(schederr.SlotUnavailable, "slot %s on %s is no longer available", *sess.Time, sess.Date)
	}

	req := booking.CreateRequest{
		ID:        uuid.New().String(),
		ServiceID: sess.ServiceID,
		MasterID:  sess.MasterID,
		ClientID:  sess.ClientID,
		Date:      sess.Date,
		Time:      *sess.Time,
	}

	created, err := s.create(ctx, req)
	if schederr.IsRemote(err) {
		return s.queueOffline(ctx, sess, req, err)
	}
	if err != nil {
		return models.SubmitResult{}, err
	}

	s.dropSession(ctx, sess.ID)
	return models.SubmitResult{Outcome: models.OutcomeConfirmed, BookingID: created.ID, Booking: created}, nil
}

func (s *Scheduler) create(ctx context.Context, req booking.CreateRequest) (*models.Booking, error) {
	sched, err := s.schedule(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	return s.Lifecycle.Create(ctx, req, sched)
}

func (s *Scheduler) queueOffline(ctx context.Context, sess *selection.Session, req booking.CreateRequest, cause error) (models.SubmitResult, error) {
	if s.Queue == nil {
		return models.SubmitResult{}, cause
	}
	pending := models.PendingSubmission{
		BookingID: req.ID,
		ServiceID: req.ServiceID,
		MasterID:  req.MasterID,
		ClientID:  req.ClientID,
		Date:      req.Date,
		Time:      req.Time,
		QueuedAt:  s.Clock.Now(),
	}

	// The request context may already be spent by the failed attempt.
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Queue.Enqueue(qctx, pending); err != nil {
		s.Logger.Error("failed to queue offline submission",
			zap.String("bookingID", req.ID), zap.NamedError("cause", cause), zap.Error(err))
		return models.SubmitResult{}, cause
	}

	s.Logger.Warn("booking queued for replay",
		zap.String("bookingID", req.ID), zap.String("masterID", req.MasterID),
		zap.String("date", req.Date), zap.Stringer("time", req.Time),
		zap.String("kind", string(schederr.KindOf(cause))))
	s.dropSession(qctx, sess.ID)
	return models.SubmitResult{Outcome: models.OutcomeOfflinePending, BookingID: req.ID}, nil
}

func (s *Scheduler) saveSession(ctx context.Context, sess *selection.Session) {
	if err := s.Sessions.Save(ctx, sess); err != nil {
		s.Logger.Warn("failed to save session", zap.String("sessionID", sess.ID), zap.Error(err))
	}
}

func (s *Scheduler) dropSession(ctx context.Context, sessionID string) {
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		s.Logger.Warn("failed to delete submitted session", zap.String("sessionID", sessionID), zap.Error(err))
	}
}

// ReplaySubmission makes the single deferred attempt for a queued booking.
// A lost slot is reported to the caller and not retried.
func (s *Scheduler) ReplaySubmission(ctx context.Context, p models.PendingSubmission) (*models.Booking, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	created, err := s.create(ctx, booking.CreateRequest{
		ID:        p.BookingID,
		ServiceID: p.ServiceID,
		MasterID:  p.MasterID,
		ClientID:  p.ClientID,
		Date:      p.Date,
		Time:      p.Time,
	})
	if err != nil {
		s.Logger.Warn("offline submission failed",
			zap.String("bookingID", p.BookingID), zap.String("masterID", p.MasterID),
			zap.String("date", p.Date), zap.Stringer("time", p.Time),
			zap.String("kind", string(schederr.KindOf(err))), zap.Error(err))
		return nil, err
	}
	s.Logger.Info("offline submission stored", zap.String("bookingID", created.ID))
	return created, nil
}
