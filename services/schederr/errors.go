// Package schederr holds the error taxonomy shared by the scheduling services.
package schederr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a scheduling failure.
type Kind string

const (
	Validation      Kind = "validation"
	SlotUnavailable Kind = "slot_unavailable"
	PolicyViolation Kind = "policy_violation"
	Configuration   Kind = "configuration"
	Transport       Kind = "transport"
	Timeout         Kind = "timeout"
	NotFound        Kind = "not_found"
	Forbidden       Kind = "forbidden"
)

// Rules reported with policy violations.
const (
	RuleAllowReschedule   = "allow_reschedule"
	RuleMinCancelHours    = "min_cancel_hours"
	RuleInvalidTransition = "invalid_transition"
)

// Error is a classified scheduling failure.
type Error struct {
	Kind    Kind
	Message string
	Rule    string // policy rule that blocked the action, if any
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels: an *Error with no message matches any error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	ErrValidation      = &Error{Kind: Validation}
	ErrSlotUnavailable = &Error{Kind: SlotUnavailable}
	ErrPolicyViolation = &Error{Kind: PolicyViolation}
	ErrConfiguration   = &Error{Kind: Configuration}
	ErrTransport       = &Error{Kind: Transport}
	ErrTimeout         = &Error{Kind: Timeout}
	ErrNotFound        = &Error{Kind: NotFound}
	ErrForbidden       = &Error{Kind: Forbidden}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Policy reports an action blocked by a named policy rule.
func Policy(rule, format string, args ...any) *Error {
	return &Error{Kind: PolicyViolation, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// FromRemote classifies a collaborator failure. Errors that are already
// classified pass through unchanged.
func FromRemote(err error, op string) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(Timeout, err, "%s timed out", op)
	}
	return Wrap(Transport, err, "%s failed", op)
}

// KindOf returns the kind of err, or "" if it is not classified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// RuleOf returns the policy rule attached to err, if any.
func RuleOf(err error) string {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Rule
	}
	return ""
}

// IsRemote reports whether err leaves the remote state unknown.
func IsRemote(err error) bool {
	k := KindOf(err)
	return k == Transport || k == Timeout
}
