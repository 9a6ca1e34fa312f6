package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jatra/booking-engine/internal/core/domain"
)

// AcquireResult reports the outcome of an all-or-nothing lock acquisition.
// When OK is false, FailedKey names the first key that was already held and
// Acquired is empty: every key locked before the failure has been rolled back.
type AcquireResult struct {
	OK        bool
	Acquired  []string
	FailedKey string
}

// LockManager is the distributed lock layer over the expiring key store.
// Each per-key check-then-act is atomic with respect to other callers.
type LockManager interface {
	AcquireAll(ctx context.Context, keys []string, owner string, ttl time.Duration) (AcquireResult, error)
	ReleaseAll(ctx context.Context, keys []string, owner string) (int, error)
	ExtendAll(ctx context.Context, keys []string, owner string, ttl time.Duration) (int, error)
}

// SeatLocker maps (journey, seat) pairs onto lock keys and keeps the
// reservation record that makes release-by-reservation-id possible.
type SeatLocker interface {
	LockSeats(ctx context.Context, reservationID, journeyID, userID string, seatIDs []string, ttl time.Duration) error
	ReleaseSeats(ctx context.Context, journeyID, userID string, seatIDs []string) (int, error)
	ExtendSeats(ctx context.Context, journeyID, userID string, seatIDs []string, ttl time.Duration) (int, error)
	ReleaseReservation(ctx context.Context, reservationID string) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	Confirm(ctx context.Context, id uuid.UUID, paymentID string, confirmedAt time.Time) error
	ExpiredPending(ctx context.Context, limit int) ([]domain.Booking, error)
}

type InitiatePaymentRequest struct {
	UserID        string         `json:"userId"`
	ReservationID string         `json:"reservationId"`
	Amount        float64        `json:"amount"`
	PaymentMethod string         `json:"paymentMethod"`
	Details       map[string]any `json:"details,omitempty"`
}

// PaymentGateway is the external payment collaborator.
type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiatePaymentRequest) (*domain.Payment, error)
	GetStatus(ctx context.Context, paymentID string) (domain.PaymentStatus, error)
}

// Publisher hands a payload to the broker wrapped in the standard event
// envelope. A publish failure is returned to the caller, never swallowed.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, data any) error
}
