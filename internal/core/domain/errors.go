package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrBookingTerminal is returned when a status write targets a booking
	// already in CONFIRMED, PAYMENT_FAILED or CANCELLED.
	ErrBookingTerminal = errors.New("booking is in a terminal state")

	// ErrIdempotencyInProgress signals that another request holding the same
	// idempotency key is still executing. A conflict, not a failure.
	ErrIdempotencyInProgress = errors.New("request with this idempotency key is already processing")
)

// SeatConflictError reports the specific seat that blocked an all-or-nothing
// lock attempt.
type SeatConflictError struct {
	JourneyID string
	SeatID    string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s is no longer available", e.SeatID)
}
