// Package booking owns the booking lifecycle: creation with slot
// re-validation, provider confirmation, reschedule, cancellation with
// penalties, and completion.
package booking

import (
	"context"
	"errors"
	"time"

	bookingRepo "bookly/database/repository/booking"
	"bookly/models"
	"bookly/services/availability"
	"bookly/services/schederr"

	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Manager applies lifecycle operations against the booking store.
type Manager struct {
	Repo   bookingRepo.BookingRepository
	Clock  clock.Clock
	Logger *zap.Logger
	// Location interprets booking dates and times. Nil means time.Local.
	Location *time.Location
	// DefaultGranularity applies to companies without their own setting.
	DefaultGranularity int
}

// Schedule carries the company settings and service a booking is made under.
type Schedule struct {
	Company models.Company
	Service models.Service
}

// Granularity returns the slot length in minutes for this schedule.
func (s Schedule) Granularity(def int) int {
	if s.Company.SlotGranularityMinutes > 0 {
		return s.Company.SlotGranularityMinutes
	}
	if def > 0 {
		return def
	}
	return availability.DefaultGranularityMinutes
}

// CreateRequest describes a new booking. ID is chosen by the caller so a
// retried submission can be recognised.
type CreateRequest struct {
	ID        string
	ServiceID string
	MasterID  string
	ClientID  string
	Date      string
	Time      models.TimeOfDay
}

func (m *Manager) location() *time.Location {
	if m.Location == nil {
		return time.Local
	}
	return m.Location
}

func (m *Manager) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

func (m *Manager) engineRequest(masterID, date string, sched Schedule, bookings []models.Booking, ignore string) availability.Request {
	return availability.Request{
		MasterID:           masterID,
		Date:               date,
		Hours:              sched.Company.WorkingHours,
		Bookings:           bookings,
		GranularityMinutes: sched.Granularity(m.DefaultGranularity),
		Now:                m.Clock.Now(),
		Location:           m.location(),
		IgnoreBookingID:    ignore,
	}
}

// slotFree re-validates a slot against the store's current view of the day.
func (m *Manager) slotFree(ctx context.Context, masterID, date string, t models.TimeOfDay, sched Schedule, ignore string) error {
	bookings, err := m.Repo.FetchMasterDay(ctx, masterID, date)
	if err != nil {
		return schederr.FromRemote(err, "fetch bookings")
	}
	free, err := availability.IsSlotAvailable(m.engineRequest(masterID, date, sched, bookings, ignore), t)
	if err != nil {
		return err
	}
	if !free {
		return schederr.New(schederr.SlotUnavailable, "slot %s on %s is no longer available", t, date)
	}
	return nil
}

func validateCreate(req CreateRequest, sched Schedule, loc *time.Location) error {
	switch {
	case req.ID == "":
		return schederr.New(schederr.Validation, "booking id is required")
	case req.ServiceID == "":
		return schederr.New(schederr.Validation, "service is required")
	case req.MasterID == "":
		return schederr.New(schederr.Validation, "master is required")
	case req.ClientID == "":
		return schederr.New(schederr.Validation, "client is required")
	case req.ServiceID != sched.Service.ID:
		return schederr.New(schederr.Validation, "service %s does not match schedule", req.ServiceID)
	case !sched.Service.HasMaster(req.MasterID):
		return schederr.New(schederr.Validation, "master %s does not perform service %s", req.MasterID, req.ServiceID)
	case !req.Time.Valid():
		return schederr.New(schederr.Validation, "time %d is out of range", int(req.Time))
	}
	if _, err := models.ParseDate(req.Date, loc); err != nil {
		return schederr.Wrap(schederr.Validation, err, "invalid booking date")
	}
	return nil
}

// Create re-validates the slot and stores a pending booking. Repeating a
// create with the same id and fields returns the stored booking.
func (m *Manager) Create(ctx context.Context, req CreateRequest, sched Schedule) (*models.Booking, error) {
	if err := validateCreate(req, sched, m.location()); err != nil {
		return nil, err
	}
	if err := m.slotFree(ctx, req.MasterID, req.Date, req.Time, sched, req.ID); err != nil {
		return nil, err
	}

	now := m.Clock.Now()
	b := &models.Booking{
		ID:        req.ID,
		ServiceID: req.ServiceID,
		MasterID:  req.MasterID,
		ClientID:  req.ClientID,
		CompanyID: sched.Company.ID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := m.Repo.CreateBooking(ctx, b)
	switch {
	case err == nil:
		m.logger().Info("booking created",
			zap.String("bookingID", b.ID), zap.String("masterID", b.MasterID),
			zap.String("date", b.Date), zap.Stringer("time", b.Time))
		return b, nil
	case errors.Is(err, bookingRepo.ErrSlotTaken):
		return nil, schederr.New(schederr.SlotUnavailable, "slot %s on %s was just taken", req.Time, req.Date)
	case errors.Is(err, bookingRepo.ErrDuplicateID):
		return m.existing(ctx, b)
	default:
		return nil, schederr.FromRemote(err, "create booking")
	}
}

// existing resolves an id collision: the same request means an earlier
// attempt already landed.
func (m *Manager) existing(ctx context.Context, want *models.Booking) (*models.Booking, error) {
	stored, err := m.Repo.GetBooking(ctx, want.ID)
	if err != nil {
		return nil, schederr.FromRemote(err, "fetch booking")
	}
	if !stored.SameRequest(*want) {
		return nil, schederr.New(schederr.Validation, "booking id %s is already in use", want.ID)
	}
	m.logger().Info("booking already stored", zap.String("bookingID", stored.ID))
	return stored, nil
}

func (m *Manager) get(ctx context.Context, id string) (*models.Booking, error) {
	if id == "" {
		return nil, schederr.New(schederr.Validation, "booking id is required")
	}
	b, err := m.Repo.GetBooking(ctx, id)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, schederr.New(schederr.NotFound, "booking %s not found", id)
	}
	if err != nil {
		return nil, schederr.FromRemote(err, "fetch booking")
	}
	return b, nil
}

// Get returns a booking by id.
func (m *Manager) Get(ctx context.Context, id string) (*models.Booking, error) {
	return m.get(ctx, id)
}

func invalidTransition(b *models.Booking, to models.BookingStatus) error {
	return schederr.Policy(schederr.RuleInvalidTransition, "booking %s is %s and cannot become %s", b.ID, b.Status, to)
}

// mapUpdateError translates store failures of a conditional update.
func mapUpdateError(err error, b *models.Booking, to models.BookingStatus, op string) error {
	switch {
	case errors.Is(err, bookingRepo.ErrNotFound):
		return schederr.New(schederr.NotFound, "booking %s not found", b.ID)
	case errors.Is(err, bookingRepo.ErrStateChanged):
		return schederr.Policy(schederr.RuleInvalidTransition, "booking %s changed while becoming %s", b.ID, to)
	case errors.Is(err, bookingRepo.ErrSlotTaken):
		return schederr.New(schederr.SlotUnavailable, "slot was just taken")
	}
	return schederr.FromRemote(err, op)
}

// Confirm moves a pending booking to confirmed. Confirming twice is a no-op.
func (m *Manager) Confirm(ctx context.Context, id string) (*models.Booking, error) {
	b, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusConfirmed {
		return b, nil
	}
	if !models.CanTransition(b.Status, models.StatusConfirmed) {
		return nil, invalidTransition(b, models.StatusConfirmed)
	}

	confirmed := models.StatusConfirmed
	updated, err := m.Repo.UpdateBooking(ctx, id, bookingRepo.Patch{
		Status:       &confirmed,
		UpdatedAt:    m.Clock.Now(),
		ExpectStatus: []models.BookingStatus{models.StatusPending},
	})
	if err != nil {
		return nil, mapUpdateError(err, b, confirmed, "confirm booking")
	}
	m.logger().Info("booking confirmed", zap.String("bookingID", id))
	return updated, nil
}

// noticeUntil returns the time left before the booking starts.
func (m *Manager) noticeUntil(b *models.Booking) (time.Duration, error) {
	start, err := models.AppointmentStart(b.Date, b.Time, m.location())
	if err != nil {
		return 0, schederr.Wrap(schederr.Validation, err, "stored booking %s has an invalid date", b.ID)
	}
	return start.Sub(m.Clock.Now()), nil
}

// Reschedule moves an active booking to a new slot in one conditional
// update, so the old slot is released exactly when the new one is taken.
// The moved booking goes back to pending for the provider to re-confirm.
func (m *Manager) Reschedule(ctx context.Context, id, date string, t models.TimeOfDay, sched Schedule) (*models.Booking, error) {
	if _, err := models.ParseDate(date, m.location()); err != nil {
		return nil, schederr.Wrap(schederr.Validation, err, "invalid reschedule date")
	}
	if !t.Valid() {
		return nil, schederr.New(schederr.Validation, "time %d is out of range", int(t))
	}
	b, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, schederr.Policy(schederr.RuleInvalidTransition, "a %s booking cannot be rescheduled", b.Status)
	}
	// A retry of a move that already landed is a no-op, even inside the
	// notice window of the new slot.
	if b.Date == date && b.Time == t {
		return b, nil
	}

	policy := sched.Company.CancellationPolicy
	if !policy.AllowReschedule {
		return nil, schederr.Policy(schederr.RuleAllowReschedule, "rescheduling is not allowed by this company")
	}
	notice, err := m.noticeUntil(b)
	if err != nil {
		return nil, err
	}
	if notice < time.Duration(policy.MinCancelHours)*time.Hour {
		return nil, schederr.Policy(schederr.RuleMinCancelHours,
			"rescheduling requires at least %d hours notice", policy.MinCancelHours)
	}

	if err := m.slotFree(ctx, b.MasterID, date, t, sched, b.ID); err != nil {
		return nil, err
	}

	pending := models.StatusPending
	updated, err := m.Repo.UpdateBooking(ctx, id, bookingRepo.Patch{
		Date:                &date,
		Time:                &t,
		Status:              &pending,
		IncrementReschedule: true,
		UpdatedAt:           m.Clock.Now(),
		ExpectStatus:        []models.BookingStatus{b.Status},
	})
	if err != nil {
		return nil, mapUpdateError(err, b, pending, "reschedule booking")
	}
	m.logger().Info("booking rescheduled",
		zap.String("bookingID", id),
		zap.String("fromDate", b.Date), zap.Stringer("fromTime", b.Time),
		zap.String("date", date), zap.Stringer("time", t))
	return updated, nil
}

// Cancel marks an active booking cancelled and records the penalty owed
// for short notice. Cancelling an already cancelled booking returns the
// outcome recorded the first time.
func (m *Manager) Cancel(ctx context.Context, id string, sched Schedule) (*models.CancellationOutcome, error) {
	b, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusCancelled {
		return alreadyCancelled(b), nil
	}
	if !models.CanTransition(b.Status, models.StatusCancelled) {
		return nil, invalidTransition(b, models.StatusCancelled)
	}

	notice, err := m.noticeUntil(b)
	if err != nil {
		return nil, err
	}
	now := m.Clock.Now()
	penalty := ComputePenalty(sched.Company.CancellationPolicy, sched.Service.Price, notice)
	outcome := models.CancellationOutcome{
		BookingID:      b.ID,
		Status:         models.StatusCancelled,
		CancelledAt:    now,
		NoticeHours:    roundHours(notice),
		PenaltyApplied: penalty.Applied,
	}
	if penalty.Applied {
		outcome.PenaltyAmount = penalty.Amount.StringFixed(2)
		outcome.DeductionType = penalty.Type
		outcome.Charged = sched.Company.CancellationPolicy.AutoDeduction
	}

	cancelled := models.StatusCancelled
	_, err = m.Repo.UpdateBooking(ctx, id, bookingRepo.Patch{
		Status:       &cancelled,
		Cancellation: &outcome,
		UpdatedAt:    now,
		ExpectStatus: models.ActiveStatuses,
	})
	if errors.Is(err, bookingRepo.ErrStateChanged) {
		// A concurrent cancel may have won; its outcome stands.
		if current, getErr := m.get(ctx, id); getErr == nil && current.Status == models.StatusCancelled {
			return alreadyCancelled(current), nil
		}
	}
	if err != nil {
		return nil, mapUpdateError(err, b, cancelled, "cancel booking")
	}
	m.logger().Info("booking cancelled",
		zap.String("bookingID", id),
		zap.Float64("noticeHours", outcome.NoticeHours),
		zap.Bool("penaltyApplied", outcome.PenaltyApplied),
		zap.String("penaltyAmount", outcome.PenaltyAmount))
	return &outcome, nil
}

func alreadyCancelled(b *models.Booking) *models.CancellationOutcome {
	var outcome models.CancellationOutcome
	if b.Cancellation != nil {
		outcome = *b.Cancellation
	} else {
		outcome = models.CancellationOutcome{BookingID: b.ID, Status: models.StatusCancelled, CancelledAt: b.UpdatedAt}
	}
	outcome.AlreadyCancelled = true
	return &outcome
}

// Elapsed reports whether the booking's slot has ended at now.
func (m *Manager) Elapsed(b models.Booking, sched Schedule) bool {
	start, err := models.AppointmentStart(b.Date, b.Time, m.location())
	if err != nil {
		return false
	}
	end := start.Add(time.Duration(sched.Granularity(m.DefaultGranularity)) * time.Minute)
	return !m.Clock.Now().Before(end)
}

// Complete marks a confirmed booking whose slot has ended as completed.
func (m *Manager) Complete(ctx context.Context, id string, sched Schedule) (*models.Booking, error) {
	b, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusCompleted {
		return b, nil
	}
	if !models.CanTransition(b.Status, models.StatusCompleted) {
		return nil, invalidTransition(b, models.StatusCompleted)
	}
	if !m.Elapsed(*b, sched) {
		return nil, schederr.Policy(schederr.RuleInvalidTransition, "booking %s has not ended yet", id)
	}

	completed := models.StatusCompleted
	updated, err := m.Repo.UpdateBooking(ctx, id, bookingRepo.Patch{
		Status:       &completed,
		UpdatedAt:    m.Clock.Now(),
		ExpectStatus: []models.BookingStatus{models.StatusConfirmed},
	})
	if err != nil {
		return nil, mapUpdateError(err, b, completed, "complete booking")
	}
	m.logger().Info("booking completed", zap.String("bookingID", id))
	return updated, nil
}
