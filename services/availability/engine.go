// Package availability computes the bookable slots of a master on a day.
package availability

import (
	"time"

	"bookly/models"
	"bookly/services/schederr"
)

// DefaultGranularityMinutes is used when a request leaves granularity unset.
const DefaultGranularityMinutes = 60

// Request is the input of ComputeAvailableSlots. Now is supplied by the
// caller's clock; the engine never reads the wall clock.
type Request struct {
	MasterID           string
	Date               string
	Hours              models.WorkingHours
	Bookings           []models.Booking
	GranularityMinutes int
	Now                time.Time
	Location           *time.Location
	// IgnoreBookingID leaves one booking out of the occupancy check, so a
	// booking being rescheduled does not block itself.
	IgnoreBookingID string
}

func (r Request) granularity() int {
	if r.GranularityMinutes <= 0 {
		return DefaultGranularityMinutes
	}
	return r.GranularityMinutes
}

// ComputeAvailableSlots returns, in ascending order, the slot start times of
// req.MasterID on req.Date that lie inside the day window, do not touch the
// break, are not held by an active booking and have not started yet.
func ComputeAvailableSlots(req Request) ([]models.TimeOfDay, error) {
	day, err := models.ParseDate(req.Date, req.Location)
	if err != nil {
		return nil, schederr.Wrap(schederr.Validation, err, "invalid availability date")
	}
	if err := req.Hours.Validate(); err != nil {
		return nil, schederr.Wrap(schederr.Configuration, err, "working hours are inconsistent")
	}

	hours := req.Hours.For(day)
	if !hours.Enabled {
		return []models.TimeOfDay{}, nil
	}

	step := req.granularity()
	occupied := occupiedIntervals(req, step)

	slots := make([]models.TimeOfDay, 0, int(hours.End-hours.Start)/step)
	for start := hours.Start; start.Add(step) <= hours.End; start = start.Add(step) {
		end := start.Add(step)
		if req.Hours.Break != nil && req.Hours.Break.Overlaps(start, end) {
			continue
		}
		if overlapsAny(occupied, start, end) {
			continue
		}
		// A slot is past once its start is at or before now.
		if !start.On(day).After(req.Now) {
			continue
		}
		slots = append(slots, start)
	}
	return slots, nil
}

// IsSlotAvailable reports whether t is one of the slots ComputeAvailableSlots returns.
func IsSlotAvailable(req Request, t models.TimeOfDay) (bool, error) {
	slots, err := ComputeAvailableSlots(req)
	if err != nil {
		return false, err
	}
	return Contains(slots, t), nil
}

func Contains(slots []models.TimeOfDay, t models.TimeOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

type interval struct {
	start, end models.TimeOfDay
}

// occupiedIntervals collects the slot ranges held by the master's active
// bookings on the requested date. A booking occupies one slot.
func occupiedIntervals(req Request, step int) []interval {
	var out []interval
	for _, b := range req.Bookings {
		if b.MasterID != req.MasterID || b.Date != req.Date || !b.Status.IsActive() {
			continue
		}
		if req.IgnoreBookingID != "" && b.ID == req.IgnoreBookingID {
			continue
		}
		out = append(out, interval{start: b.Time, end: b.Time.Add(step)})
	}
	return out
}

func overlapsAny(occupied []interval, start, end models.TimeOfDay) bool {
	for _, o := range occupied {
		if start < o.end && end > o.start {
			return true
		}
	}
	return false
}
