package models

import "time"

// Role is the kind of actor making a request.
type Role string

const (
	RoleClient  Role = "client"
	RoleCompany Role = "company"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleCompany
}

// Identity is the already-authenticated actor behind a request.
type Identity struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	CompanyID string `json:"companyId,omitempty"` // set for company actors
}

// CanManage reports whether the actor may act on b: its client, or the
// company it was booked with.
func (i Identity) CanManage(b Booking) bool {
	switch i.Role {
	case RoleClient:
		return b.ClientID == i.ID
	case RoleCompany:
		return b.CompanyID == i.CompanyID
	}
	return false
}

// SubmitOutcome distinguishes a remotely acknowledged booking from a queued attempt.
type SubmitOutcome string

const (
	OutcomeConfirmed      SubmitOutcome = "CONFIRMED"
	OutcomeOfflinePending SubmitOutcome = "OFFLINE_PENDING"
)

// SubmitResult is returned by booking submission.
type SubmitResult struct {
	Outcome   SubmitOutcome `json:"outcome"`
	BookingID string        `json:"bookingId"`
	Booking   *Booking      `json:"booking,omitempty"`
}

// PendingSubmission is a booking attempt queued while the store was unreachable.
type PendingSubmission struct {
	BookingID string    `json:"bookingId"`
	ServiceID string    `json:"serviceId"`
	MasterID  string    `json:"masterId"`
	ClientID  string    `json:"clientId"`
	Date      string    `json:"date"`
	Time      TimeOfDay `json:"time"`
	QueuedAt  time.Time `json:"queuedAt"`
}
