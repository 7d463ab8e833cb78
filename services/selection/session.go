// Package selection tracks a client's in-progress choice of master, date
// and time before a booking is submitted.
package selection

import (
	"context"
	"time"

	"bookly/models"
	"bookly/services/availability"
	"bookly/services/schederr"

	"github.com/juju/clock"
)

// DefaultStaleness is how long a fetched slot list is trusted.
const DefaultStaleness = 30 * time.Second

// SlotSource answers availability queries for a session.
type SlotSource interface {
	AvailableSlots(ctx context.Context, serviceID, masterID, date string) ([]models.TimeOfDay, error)
}

// Session is the selection state of one booking attempt. It is never
// written to the booking store.
type Session struct {
	ID             string             `json:"id"`
	ServiceID      string             `json:"serviceId"`
	ClientID       string             `json:"clientId"`
	MasterID       string             `json:"masterId,omitempty"`
	Date           string             `json:"date,omitempty"`
	Time           *models.TimeOfDay  `json:"time,omitempty"`
	Slots          []models.TimeOfDay `json:"slots,omitempty"`
	SlotsFetchedAt time.Time          `json:"slotsFetchedAt,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func New(id, serviceID, clientID string, now time.Time) *Session {
	return &Session{ID: id, ServiceID: serviceID, ClientID: clientID, CreatedAt: now}
}

// SetMaster selects a master. A different master drops the chosen time and
// the cached slots.
func (s *Session) SetMaster(masterID string) {
	if masterID != s.MasterID {
		s.clearTime()
	}
	s.MasterID = masterID
}

// SetDate selects a day in YYYY-MM-DD form.
func (s *Session) SetDate(date string, loc *time.Location) error {
	if _, err := models.ParseDate(date, loc); err != nil {
		return schederr.Wrap(schederr.Validation, err, "invalid selection date")
	}
	if date != s.Date {
		s.clearTime()
	}
	s.Date = date
	return nil
}

// SetTime selects a slot start. Availability is checked by IsComplete.
func (s *Session) SetTime(t models.TimeOfDay) error {
	if !t.Valid() {
		return schederr.New(schederr.Validation, "time %d is out of range", int(t))
	}
	s.Time = &t
	return nil
}

// SetSlots caches a slot list fetched at now.
func (s *Session) SetSlots(slots []models.TimeOfDay, now time.Time) {
	s.Slots = append([]models.TimeOfDay(nil), slots...)
	s.SlotsFetchedAt = now
}

// Reset clears every selection, keeping the session identity.
func (s *Session) Reset() {
	s.MasterID = ""
	s.Date = ""
	s.clearTime()
}

func (s *Session) clearTime() {
	s.Time = nil
	s.Slots = nil
	s.SlotsFetchedAt = time.Time{}
}

// Selected reports whether master, date and time are all chosen.
func (s *Session) Selected() bool {
	return s.ServiceID != "" && s.MasterID != "" && s.Date != "" && s.Time != nil
}

// IsComplete reports whether the selection is full and the chosen time is
// still offered. A slot list older than staleness, or missing, is fetched
// again from src first. This narrows the double-booking race; the store
// still has the final word at submission.
func (s *Session) IsComplete(ctx context.Context, src SlotSource, clk clock.Clock, staleness time.Duration) (bool, error) {
	if !s.Selected() {
		return false, nil
	}
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	now := clk.Now()
	if len(s.Slots) == 0 || now.Sub(s.SlotsFetchedAt) > staleness {
		slots, err := src.AvailableSlots(ctx, s.ServiceID, s.MasterID, s.Date)
		if err != nil {
			return false, err
		}
		s.SetSlots(slots, now)
	}
	return availability.Contains(s.Slots, *s.Time), nil
}
