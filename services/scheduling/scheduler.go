// Package scheduling is the single surface the HTTP layer and the worker
// use for availability, selection sessions and the booking lifecycle. It
// translates collaborator failures into schederr kinds and owns the offline
// policy: availability may degrade to a cached advisory view, while a
// booking is never reported as stored without the store acknowledging it.
package scheduling

import (
	"context"
	"errors"
	"time"

	bookingRepo "bookly/database/repository/booking"
	companyRepo "bookly/database/repository/company"
	"bookly/services/availability"
	"bookly/services/booking"
	"bookly/services/schederr"
	"bookly/services/selection"

	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Options tune the facade.
type Options struct {
	// Timeout bounds every operation that talks to a collaborator.
	Timeout time.Duration
	// Granularity is the slot length for companies without their own.
	Granularity int
	// Staleness is how long a session trusts its cached slot list.
	Staleness time.Duration
	Location  *time.Location
}

const DefaultTimeout = 10 * time.Second

// Scheduler composes the availability engine, the lifecycle manager and
// selection sessions. Use New to construct one.
type Scheduler struct {
	Bookings  bookingRepo.BookingRepository
	Companies companyRepo.CompanyRepository
	Lifecycle *booking.Manager
	Sessions  selection.Store
	Snapshots SnapshotCache
	// Queue receives submissions the store could not acknowledge. Nil
	// disables offline queueing.
	Queue   OfflineQueue
	Clock   clock.Clock
	Logger  *zap.Logger
	Options Options

	locks *kmutex.Kmutex
}

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Bookings  bookingRepo.BookingRepository
	Companies companyRepo.CompanyRepository
	Sessions  selection.Store
	Snapshots SnapshotCache
	Queue     OfflineQueue
	Clock     clock.Clock
	Logger    *zap.Logger
}

func New(deps Deps, opts Options) *Scheduler {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Granularity <= 0 {
		opts.Granularity = availability.DefaultGranularityMinutes
	}
	if opts.Staleness <= 0 {
		opts.Staleness = selection.DefaultStaleness
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Snapshots == nil {
		deps.Snapshots = NewMemorySnapshotCache(time.Hour)
	}
	return &Scheduler{
		Bookings:  deps.Bookings,
		Companies: deps.Companies,
		Lifecycle: &booking.Manager{
			Repo:               deps.Bookings,
			Clock:              deps.Clock,
			Logger:             deps.Logger.Named("lifecycle"),
			Location:           opts.Location,
			DefaultGranularity: opts.Granularity,
		},
		Sessions:  deps.Sessions,
		Snapshots: deps.Snapshots,
		Queue:     deps.Queue,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
		Options:   opts,
		locks:     kmutex.New(),
	}
}

func (s *Scheduler) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.Options.Timeout)
}

// lock serializes operations on one key, a booking or a session. A second
// caller waits for the first to finish instead of interleaving with it, but
// gives up with a timeout once ctx is done.
func (s *Scheduler) lock(ctx context.Context, key string) (func(), error) {
	acquired := make(chan struct{})
	go func() {
		s.locks.Lock(key)
		close(acquired)
	}()
	select {
	case <-acquired:
		return func() { s.locks.Unlock(key) }, nil
	case <-ctx.Done():
		// The abandoned wait still gets the lock eventually; hand it back.
		go func() {
			<-acquired
			s.locks.Unlock(key)
		}()
		return nil, schederr.Wrap(schederr.Timeout, ctx.Err(), "waiting for %s", key)
	}
}

// schedule loads the service and the company it belongs to.
func (s *Scheduler) schedule(ctx context.Context, serviceID string) (booking.Schedule, error) {
	if serviceID == "" {
		return booking.Schedule{}, schederr.New(schederr.Validation, "service is required")
	}
	service, err := s.Companies.GetService(ctx, serviceID)
	if errors.Is(err, companyRepo.ErrServiceNotFound) {
		return booking.Schedule{}, schederr.New(schederr.NotFound, "service %s not found", serviceID)
	}
	if err != nil {
		return booking.Schedule{}, schederr.FromRemote(err, "fetch service")
	}
	company, err := s.Companies.GetCompany(ctx, service.CompanyID)
	if errors.Is(err, companyRepo.ErrCompanyNotFound) {
		return booking.Schedule{}, schederr.New(schederr.Configuration, "service %s belongs to unknown company %s", serviceID, service.CompanyID)
	}
	if err != nil {
		return booking.Schedule{}, schederr.FromRemote(err, "fetch company")
	}
	return booking.Schedule{Company: *company, Service: *service}, nil
}
