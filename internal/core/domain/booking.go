package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending           BookingStatus = "PENDING"
	BookingPaymentProcessing BookingStatus = "PAYMENT_PROCESSING"
	BookingConfirmed         BookingStatus = "CONFIRMED"
	BookingPaymentFailed     BookingStatus = "PAYMENT_FAILED"
	BookingCancelled         BookingStatus = "CANCELLED"
)

// IsTerminal reports whether a booking in this status accepts no further
// status transition.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingConfirmed, BookingPaymentFailed, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	JourneyID     uuid.UUID
	ReservationID uuid.UUID
	Amount        float64
	Status        BookingStatus
	PaymentID     *string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ConfirmedAt   *time.Time
	SeatIDs       []string
}
