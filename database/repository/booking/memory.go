// File: database/repository/booking/memory.go
package bookingRepo

import (
	"context"
	"sort"
	"sync"

	"bookly/models"
)

// memoryBookingRepo is the local fallback store used when Mongo is not
// configured, and the fake behind the service tests.
type memoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	slots    map[string]string // slot key -> id of the active booking holding it
}

// NewMemoryBookingRepo constructs an empty in-memory BookingRepository.
func NewMemoryBookingRepo() BookingRepository {
	return &memoryBookingRepo{
		bookings: make(map[string]models.Booking),
		slots:    make(map[string]string),
	}
}

func (r *memoryBookingRepo) FetchBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return r.filter(ctx, func(b models.Booking) bool {
		return b.ClientID == ownerID || b.MasterID == ownerID
	})
}

func (r *memoryBookingRepo) FetchCompanyBookings(ctx context.Context, companyID string) ([]models.Booking, error) {
	return r.filter(ctx, func(b models.Booking) bool { return b.CompanyID == companyID })
}

func (r *memoryBookingRepo) FetchMasterDay(ctx context.Context, masterID, date string) ([]models.Booking, error) {
	return r.filter(ctx, func(b models.Booking) bool {
		return b.MasterID == masterID && b.Date == date && b.Status.IsActive()
	})
}

func (r *memoryBookingRepo) FetchByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return r.filter(ctx, func(b models.Booking) bool { return b.Status == status })
}

func (r *memoryBookingRepo) filter(ctx context.Context, keep func(models.Booking) bool) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryBookingRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *memoryBookingRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return ErrDuplicateID
	}
	booking.Active = booking.Status.IsActive()
	if booking.Active {
		if _, taken := r.slots[booking.SlotKey()]; taken {
			return ErrSlotTaken
		}
		r.slots[booking.SlotKey()] = booking.ID
	}
	r.bookings[booking.ID] = *booking
	return nil
}

// UpdateBooking applies the patch under the store lock, so releasing the old
// slot and taking the new one happen together.
func (r *memoryBookingRepo) UpdateBooking(ctx context.Context, id string, patch Patch) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !patch.allows(current.Status) {
		return nil, ErrStateChanged
	}

	updated := patch.apply(current)
	oldKey, newKey := current.SlotKey(), updated.SlotKey()
	if updated.Active {
		if holder, taken := r.slots[newKey]; taken && holder != id {
			return nil, ErrSlotTaken
		}
	}
	if current.Active {
		delete(r.slots, oldKey)
	}
	if updated.Active {
		r.slots[newKey] = id
	}
	r.bookings[id] = updated
	return &updated, nil
}

func (r *memoryBookingRepo) DeleteBooking(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.Active {
		delete(r.slots, b.SlotKey())
	}
	delete(r.bookings, id)
	return nil
}
