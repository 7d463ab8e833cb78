// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"
	"time"

	"bookly/models"
)

var (
	ErrNotFound     = errors.New("booking not found")
	ErrSlotTaken    = errors.New("slot already booked")
	ErrDuplicateID  = errors.New("booking id already exists")
	ErrStateChanged = errors.New("booking status changed concurrently")
)

// BookingRepository is the persistence collaborator for bookings. The store
// enforces that at most one active booking holds a (master, date, time) slot:
// the first write wins and later writers get ErrSlotTaken.
type BookingRepository interface {
	// FetchBookings returns every booking where ownerID is the client or the master.
	FetchBookings(ctx context.Context, ownerID string) ([]models.Booking, error)
	FetchCompanyBookings(ctx context.Context, companyID string) ([]models.Booking, error)
	// FetchMasterDay returns the master's active bookings on date.
	FetchMasterDay(ctx context.Context, masterID, date string) ([]models.Booking, error)
	FetchByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, id string, patch Patch) (*models.Booking, error)
	// DeleteBooking hard-deletes a record for maintenance tooling. The
	// scheduler never calls it: cancellation keeps the booking and only
	// changes its status.
	DeleteBooking(ctx context.Context, id string) error
}

// Patch is a partial booking update. A non-empty ExpectStatus makes the
// update conditional on the stored status.
type Patch struct {
	Date                *string
	Time                *models.TimeOfDay
	Status              *models.BookingStatus
	Cancellation        *models.CancellationOutcome
	IncrementReschedule bool
	UpdatedAt           time.Time
	ExpectStatus        []models.BookingStatus
}

func (p Patch) allows(status models.BookingStatus) bool {
	if len(p.ExpectStatus) == 0 {
		return true
	}
	for _, s := range p.ExpectStatus {
		if s == status {
			return true
		}
	}
	return false
}

// apply returns b with the patch applied.
func (p Patch) apply(b models.Booking) models.Booking {
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Time != nil {
		b.Time = *p.Time
	}
	if p.Status != nil {
		b.Status = *p.Status
		b.Active = p.Status.IsActive()
	}
	if p.Cancellation != nil {
		outcome := *p.Cancellation
		b.Cancellation = &outcome
	}
	if p.IncrementReschedule {
		b.RescheduleCount++
	}
	if !p.UpdatedAt.IsZero() {
		b.UpdatedAt = p.UpdatedAt
	}
	return b
}
