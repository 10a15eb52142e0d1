package database

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the store. Callers match with errors.Is.
var (
	ErrEventNotFound       = errors.New("event not found")
	ErrBusNotFound         = errors.New("bus slot not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrUserNotFound        = errors.New("user not found")

	ErrEventNotOpen = errors.New("event is not open for reservations")
	ErrEventFull    = errors.New("event is full")

	ErrOutboundBusFull = errors.New("outbound bus is full")
	ErrReturnBusFull   = errors.New("return bus is full")

	ErrDuplicateReservation = errors.New("user already has a reservation for this event")
	ErrDuplicateComment     = errors.New("reservation already has a comment")
	ErrEmptyComment         = errors.New("comment must carry a rating or a review")

	ErrDescriptionTaken = errors.New("bus description already in use")
	ErrBusInUse         = errors.New("bus slot has reservations")
	ErrEventInUse       = errors.New("event has reservations")

	ErrForbidden = errors.New("operation not permitted for this user")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
