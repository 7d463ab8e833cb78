package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// ActiveStatuses hold a slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether a booking in this state occupies its slot.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := BookingStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("unknown booking status %q", raw)
	}
	*s = status
	return nil
}

// transitions lists the allowed lifecycle moves. Rescheduling moves an
// active booking back to pending at its new slot.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusPending, StatusCancelled},
	StatusConfirmed: {StatusPending, StatusCancelled, StatusCompleted},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking is a reservation of one master's slot by a client.
type Booking struct {
	ID              string               `bson:"id" json:"id"`
	ServiceID       string               `bson:"service_id" json:"serviceId"`
	MasterID        string               `bson:"master_id" json:"masterId"`
	ClientID        string               `bson:"client_id" json:"clientId"`
	CompanyID       string               `bson:"company_id" json:"companyId"`
	Date            string               `bson:"date" json:"date"` // "YYYY-MM-DD"
	Time            TimeOfDay            `bson:"time" json:"time"`
	Status          BookingStatus        `bson:"status" json:"status"`
	Active          bool                 `bson:"active" json:"-"` // mirrors Status.IsActive(), backs the slot index
	RescheduleCount int                  `bson:"reschedule_count,omitempty" json:"rescheduleCount,omitempty"`
	Cancellation    *CancellationOutcome `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	CreatedAt       time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updatedAt"`
}

// SlotKey identifies the (master, date, time) triple a booking occupies.
func (b Booking) SlotKey() string {
	return SlotKey(b.MasterID, b.Date, b.Time)
}

func SlotKey(masterID, date string, t TimeOfDay) string {
	return masterID + "|" + date + "|" + t.String()
}

// SameRequest reports whether other describes the same reservation attempt.
func (b Booking) SameRequest(other Booking) bool {
	return b.ID == other.ID &&
		b.ServiceID == other.ServiceID &&
		b.MasterID == other.MasterID &&
		b.ClientID == other.ClientID &&
		b.Date == other.Date &&
		b.Time == other.Time
}

// CancellationOutcome records how a cancellation was settled.
type CancellationOutcome struct {
	BookingID        string        `bson:"booking_id" json:"bookingId"`
	Status           BookingStatus `bson:"status" json:"status"`
	CancelledAt      time.Time     `bson:"cancelled_at" json:"cancelledAt"`
	NoticeHours      float64       `bson:"notice_hours" json:"noticeHours"`
	PenaltyApplied   bool          `bson:"penalty_applied" json:"penaltyApplied"`
	PenaltyAmount    string        `bson:"penalty_amount,omitempty" json:"penaltyAmount,omitempty"` // decimal, 2 places
	DeductionType    DeductionType `bson:"deduction_type,omitempty" json:"deductionType,omitempty"`
	Charged          bool          `bson:"charged" json:"charged"`
	AlreadyCancelled bool          `bson:"-" json:"alreadyCancelled,omitempty"`
}
