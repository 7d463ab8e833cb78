package scheduling

import (
	"context"
	"errors"

	"bookly/models"
	"bookly/services/booking"
	"bookly/services/schederr"

	"go.uber.org/zap"
)

// managed loads a booking the caller may act on, with its schedule.
func (s *Scheduler) managed(ctx context.Context, identity models.Identity, id string) (*models.Booking, booking.Schedule, error) {
	b, err := s.Lifecycle.Get(ctx, id)
	if err != nil {
		return nil, booking.Schedule{}, err
	}
	if !identity.CanManage(*b) {
		return nil, booking.Schedule{}, schederr.New(schederr.Forbidden, "booking %s belongs to someone else", id)
	}
	sched, err := s.schedule(ctx, b.ServiceID)
	if err != nil {
		return nil, booking.Schedule{}, err
	}
	return b, sched, nil
}

// Reschedule moves a booking to another slot.
func (s *Scheduler) Reschedule(ctx context.Context, identity models.Identity, id, date string, t models.TimeOfDay) (*models.Booking, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	_, sched, err := s.managed(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return s.Lifecycle.Reschedule(ctx, id, date, t, sched)
}

// Cancel cancels a booking and reports the penalty outcome.
func (s *Scheduler) Cancel(ctx context.Context, identity models.Identity, id string) (*models.CancellationOutcome, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	_, sched, err := s.managed(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return s.Lifecycle.Cancel(ctx, id, sched)
}

// Confirm is the provider's acceptance of a pending booking.
func (s *Scheduler) Confirm(ctx context.Context, identity models.Identity, id string) (*models.Booking, error) {
	if identity.Role != models.RoleCompany {
		return nil, schederr.New(schederr.Forbidden, "only the company can confirm bookings")
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, _, err := s.managed(ctx, identity, id); err != nil {
		return nil, err
	}
	return s.Lifecycle.Confirm(ctx, id)
}

// ListBookings returns the caller's bookings: a client's own, or all of a
// company's.
func (s *Scheduler) ListBookings(ctx context.Context, identity models.Identity) ([]models.Booking, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		bookings []models.Booking
		err      error
	)
	switch identity.Role {
	case models.RoleClient:
		bookings, err = s.Bookings.FetchBookings(ctx, identity.ID)
	case models.RoleCompany:
		bookings, err = s.Bookings.FetchCompanyBookings(ctx, identity.CompanyID)
	default:
		return nil, schederr.New(schederr.Forbidden, "unknown role %q", identity.Role)
	}
	if err != nil {
		return nil, schederr.FromRemote(err, "fetch bookings")
	}

	out := bookings[:0]
	for _, b := range bookings {
		if identity.CanManage(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CompleteElapsed marks every confirmed booking whose slot has ended as
// completed. It returns how many were completed.
func (s *Scheduler) CompleteElapsed(ctx context.Context) (int, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	confirmed, err := s.Bookings.FetchByStatus(ctx, models.StatusConfirmed)
	if err != nil {
		return 0, schederr.FromRemote(err, "fetch confirmed bookings")
	}

	schedules := map[string]booking.Schedule{}
	var errs []error
	done := 0
	for _, b := range confirmed {
		sched, ok := schedules[b.ServiceID]
		if !ok {
			sched, err = s.schedule(ctx, b.ServiceID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			schedules[b.ServiceID] = sched
		}
		if !s.Lifecycle.Elapsed(b, sched) {
			continue
		}
		if err := s.completeOne(ctx, b.ID, sched); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
	}
	if done > 0 {
		s.Logger.Info("completion sweep", zap.Int("completed", done), zap.Int("failed", len(errs)))
	}
	return done, errors.Join(errs...)
}

func (s *Scheduler) completeOne(ctx context.Context, id string, sched booking.Schedule) error {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	_, err = s.Lifecycle.Complete(ctx, id, sched)
	return err
}
