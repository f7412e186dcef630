package router

import (
	"errors"
	"fmt"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// Errors returned by Handle. By the time Handle returns, the actor has already
// been told what happened; callers only log and classify.
var (
	// ErrAccessDenied is returned when a non-operator attempts an
	// operator-only command, action or reply.
	ErrAccessDenied = errors.New("access denied")
	// ErrStale is returned when an action or reply refers to a request or
	// proof that is no longer pending.
	ErrStale = errors.New("already processed or not found")
	// ErrNotConfirmed is returned when an unconfirmed client asks for
	// payment details.
	ErrNotConfirmed = errors.New("client not confirmed")
	// ErrPaymentMissing is returned when the operator approves a request
	// before payment details have been configured.
	ErrPaymentMissing = errors.New("payment details not configured")
)

// ValidationError reports malformed input: a bad action code, an unknown
// command, a missing argument.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DeliveryError reports that the gateway could not deliver a notification.
type DeliveryError struct {
	To  model.ClientID
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Outcome classifies an error returned by Handle.
func Outcome(err error) string {
	var (
		ve *ValidationError
		de *DeliveryError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrNotConfirmed):
		return "denied"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, ErrStale):
		return "stale"
	case errors.Is(err, ErrPaymentMissing):
		return "payload_missing"
	case errors.As(err, &de):
		return "delivery_failed"
	default:
		return "internal"
	}
}
