package scheduling

import (
	"errors"

	"bookly/services/schederr"
)

// Failure is the user-facing form of an error.
type Failure struct {
	Kind    schederr.Kind `json:"kind"`
	Message string        `json:"message"`
	Rule    string        `json:"rule,omitempty"`
	// Retryable means the user can act again: pick another slot or retry later.
	Retryable bool `json:"retryable"`
	// PendingSync means the outcome is unknown until the store is reachable.
	PendingSync bool `json:"pendingSync"`
}

// Describe translates any error returned by the Scheduler. It is the only
// place user-facing text is produced.
func Describe(err error) Failure {
	var classified *schederr.Error
	if !errors.As(err, &classified) {
		return Failure{Kind: "internal", Message: "Something went wrong. Please try again later."}
	}

	f := Failure{Kind: classified.Kind, Rule: classified.Rule}
	switch classified.Kind {
	case schederr.Validation:
		f.Message = "Please check your input: " + detail(classified)
	case schederr.SlotUnavailable:
		f.Message = "This time slot is no longer available. Please choose another one."
		f.Retryable = true
	case schederr.PolicyViolation:
		switch classified.Rule {
		case schederr.RuleAllowReschedule:
			f.Message = "This company does not allow rescheduling."
		case schederr.RuleMinCancelHours:
			f.Message = "Not allowed this close to the appointment: " + classified.Message + "."
		default:
			f.Message = "This action is not allowed: " + classified.Message + "."
		}
	case schederr.Configuration:
		f.Message = "Booking is temporarily unavailable for this company."
	case schederr.Transport, schederr.Timeout:
		f.Message = "The booking service is not reachable right now. Your request is pending sync; please check again shortly."
		f.Retryable = true
		f.PendingSync = true
	case schederr.NotFound:
		f.Message = capitalize(classified.Message) + "."
	case schederr.Forbidden:
		f.Message = "You are not allowed to do that."
	default:
		f.Message = "Something went wrong. Please try again later."
	}
	return f
}

func detail(e *schederr.Error) string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
