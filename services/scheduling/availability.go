package scheduling

import (
	"context"
	"time"

	"bookly/models"
	"bookly/services/availability"
	"bookly/services/booking"
	"bookly/services/schederr"

	"go.uber.org/zap"
)

// Availability is the slot list offered for one master on one day.
// Advisory marks a list computed from a cached snapshot while the store was
// unreachable; AsOf is when that snapshot was taken.
type Availability struct {
	ServiceID string             `json:"serviceId"`
	MasterID  string             `json:"masterId"`
	Date      string             `json:"date"`
	Slots     []models.TimeOfDay `json:"slots"`
	Advisory  bool               `json:"advisory"`
	AsOf      *time.Time         `json:"asOf,omitempty"`
}

// GetAvailability computes the free slots of masterID for serviceID on date.
func (s *Scheduler) GetAvailability(ctx context.Context, serviceID, masterID, date string) (Availability, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if masterID == "" {
		return Availability{}, schederr.New(schederr.Validation, "master is required")
	}
	if _, err := models.ParseDate(date, s.Options.Location); err != nil {
		return Availability{}, schederr.Wrap(schederr.Validation, err, "invalid availability date")
	}

	out := Availability{ServiceID: serviceID, MasterID: masterID, Date: date}
	sched, bookings, err := s.liveDay(ctx, serviceID, masterID, date)
	if schederr.IsRemote(err) {
		snap, snapErr := s.Snapshots.Get(ctx, serviceID, masterID, date)
		if snapErr != nil {
			s.Logger.Warn("availability unavailable and no snapshot",
				zap.String("serviceID", serviceID), zap.String("masterID", masterID),
				zap.String("date", date), zap.Error(err))
			return Availability{}, err
		}
		s.Logger.Info("serving advisory availability",
			zap.String("masterID", masterID), zap.String("date", date), zap.Time("asOf", snap.TakenAt))
		sched = booking.Schedule{Company: snap.Company, Service: snap.Service}
		bookings = snap.Bookings
		out.Advisory = true
		asOf := snap.TakenAt
		out.AsOf = &asOf
	} else if err != nil {
		return Availability{}, err
	} else {
		snap := Snapshot{Company: sched.Company, Service: sched.Service, Bookings: bookings, TakenAt: s.Clock.Now()}
		if putErr := s.Snapshots.Put(ctx, serviceID, masterID, date, snap); putErr != nil {
			s.Logger.Warn("failed to store availability snapshot", zap.String("masterID", masterID), zap.Error(putErr))
		}
	}

	slots, err := availability.ComputeAvailableSlots(availability.Request{
		MasterID:           masterID,
		Date:               date,
		Hours:              sched.Company.WorkingHours,
		Bookings:           bookings,
		GranularityMinutes: sched.Granularity(s.Options.Granularity),
		Now:                s.Clock.Now(),
		Location:           s.Options.Location,
	})
	if err != nil {
		return Availability{}, err
	}
	out.Slots = slots
	return out, nil
}

// liveDay reads the schedule and the master's bookings from the stores.
func (s *Scheduler) liveDay(ctx context.Context, serviceID, masterID, date string) (booking.Schedule, []models.Booking, error) {
	sched, err := s.schedule(ctx, serviceID)
	if err != nil {
		return booking.Schedule{}, nil, err
	}
	if !sched.Service.HasMaster(masterID) {
		return booking.Schedule{}, nil, schederr.New(schederr.Validation, "master %s does not perform service %s", masterID, serviceID)
	}
	bookings, err := s.Bookings.FetchMasterDay(ctx, masterID, date)
	if err != nil {
		return booking.Schedule{}, nil, schederr.FromRemote(err, "fetch bookings")
	}
	return sched, bookings, nil
}

// AvailableSlots lets sessions re-query availability.
func (s *Scheduler) AvailableSlots(ctx context.Context, serviceID, masterID, date string) ([]models.TimeOfDay, error) {
	a, err := s.GetAvailability(ctx, serviceID, masterID, date)
	if err != nil {
		return nil, err
	}
	return a.Slots, nil
}
