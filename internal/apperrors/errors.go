// Package apperrors defines the error kinds returned by the vehicle,
// booking and trip services. Every kind is a recoverable decision outcome
// that handlers translate into an HTTP response; none of them abort the
// process and none are retried internally.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was malformed or out of range.
	ErrValidation = errors.New("validation failed")

	// ErrVehicleUnavailable means the vehicle is not in available status.
	ErrVehicleUnavailable = errors.New("vehicle is not available")

	// ErrInvalidState means a booking lifecycle rule was violated.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidMileage means the new odometer reading is behind the
	// current one.
	ErrInvalidMileage = errors.New("mileage cannot decrease")

	// ErrAlreadyStarted means the booking already has an open trip.
	ErrAlreadyStarted = errors.New("trip already started for booking")

	// ErrAlreadyEnded means the trip has already been closed.
	ErrAlreadyEnded = errors.New("trip has already been ended")
)

// ConflictError is returned when a requested booking window overlaps
// existing active bookings on the same vehicle.
type ConflictError struct {
	VehicleID  uuid.UUID
	BookingIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("vehicle %s has %d conflicting booking(s) in the requested time window",
		e.VehicleID, len(e.BookingIDs))
}

// InvalidTransitionError is returned when a vehicle status change is not in
// the transition table.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func NotFound(entity string, id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}
