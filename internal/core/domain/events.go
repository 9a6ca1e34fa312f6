package domain

import (
	"time"
)

const (
	BookingExchange = "booking.exchange"

	PaymentProcessingQueue = "payment.processing.queue"
)

const (
	RoutingKeyPaymentProcess   = "payment.process"
	RoutingKeyPaymentFailed    = "payment.failed"
	RoutingKeyBookingConfirmed = "booking.confirmed"
	RoutingKeyBookingCancelled = "booking.cancelled"
)

// Event is the envelope every message on the broker travels in. EventType
// doubles as the routing key.
type Event struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      any       `json:"data"`
}

type BookingConfirmedData struct {
	BookingID     string    `json:"bookingId"`
	UserID        string    `json:"userId"`
	ReservationID string    `json:"reservationId"`
	PaymentID     string    `json:"paymentId"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

type BookingCancelledData struct {
	BookingID     string    `json:"bookingId"`
	UserID        string    `json:"userId"`
	ReservationID string    `json:"reservationId"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

type PaymentFailedData struct {
	BookingID     string    `json:"bookingId"`
	UserID        string    `json:"userId"`
	ReservationID string    `json:"reservationId"`
	Reason        string    `json:"reason"`
	FailedAt      time.Time `json:"failedAt"`
}
