package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports"
)

type ReserveRequest struct {
	UserID         string         `json:"user_id"`
	JourneyID      string         `json:"journey_id"`
	SeatIDs        []string       `json:"seat_ids"`
	Amount         float64        `json:"amount"`
	PaymentMethod  string         `json:"payment_method"`
	PaymentDetails map[string]any `json:"payment_details,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

type ReserveResponse struct {
	BookingID     string  `json:"booking_id"`
	ReservationID string  `json:"reservation_id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	ExpiresAt     string  `json:"expires_at"`
}

// ReservationService accepts reservation requests: it locks the requested
// seats, creates the booking in PENDING, and enqueues the payment message
// the saga consumes. It also owns the cancellation path and the sweep that
// expires abandoned PENDING bookings.
type ReservationService struct {
	seatLocks   ports.SeatLocker
	bookings    ports.BookingRepository
	idempotency *IdempotencyService
	publisher   ports.Publisher
	seatLockTTL time.Duration
	logger      *logrus.Logger
}

func NewReservationService(
	seatLocks ports.SeatLocker,
	bookings ports.BookingRepository,
	idempotency *IdempotencyService,
	publisher ports.Publisher,
	seatLockTTL time.Duration,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		seatLocks:   seatLocks,
		bookings:    bookings,
		idempotency: idempotency,
		publisher:   publisher,
		seatLockTTL: seatLockTTL,
		logger:      logger,
	}
}

// Reserve handles one reservation request under the idempotency protocol:
// duplicates of an in-flight request are rejected as a conflict, replays of
// a completed one get the original response verbatim.
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResponse, error) {
	if err := validateReserveRequest(req); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		var err error
		key, err = s.idempotency.GenerateKey("reserve", req)
		if err != nil {
			return nil, err
		}
	} else {
		key = "idempotency:reserve:" + key
	}

	result, err := s.idempotency.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		resp, err := s.reserve(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	if err != nil {
		return nil, err
	}

	var resp ReserveResponse
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("decode cached reservation response: %w", err)
	}
	return &resp, nil
}

func (s *ReservationService) reserve(ctx context.Context, req ReserveRequest) (*ReserveResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	journeyID, err := uuid.Parse(req.JourneyID)
	if err != nil {
		return nil, errors.New("invalid journey id")
	}

	bookingID := uuid.New()
	reservationID := uuid.New()

	if err := s.seatLocks.LockSeats(ctx, reservationID.String(), req.JourneyID, req.UserID, req.SeatIDs, s.seatLockTTL); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:            bookingID,
		UserID:        userID,
		JourneyID:     journeyID,
		ReservationID: reservationID,
		Amount:        req.Amount,
		Status:        domain.BookingPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.seatLockTTL),
		SeatIDs:       req.SeatIDs,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		s.releaseOnFailure(ctx, reservationID.String())
		return nil, fmt.Errorf("create booking: %w", err)
	}

	msg := domain.PaymentMessage{
		BookingID:      bookingID.String(),
		UserID:         req.UserID,
		ReservationID:  reservationID.String(),
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
	}

	if err := s.publisher.Publish(ctx, domain.BookingExchange, domain.RoutingKeyPaymentProcess, msg); err != nil {
		// Without the message no saga will ever pick this booking up; fail
		// the request and give the seats back.
		s.releaseOnFailure(ctx, reservationID.String())
		if cancelErr := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingCancelled); cancelErr != nil {
			s.logger.Errorf("Failed to cancel booking %s after publish failure: %v", bookingID, cancelErr)
		}
		return nil, fmt.Errorf("enqueue payment: %w", err)
	}

	s.logger.Infof("Booking %s created, payment queued (reservation %s)", bookingID, reservationID)

	return &ReserveResponse{
		BookingID:     bookingID.String(),
		ReservationID: reservationID.String(),
		Amount:        req.Amount,
		Status:        string(domain.BookingPending),
		ExpiresAt:     booking.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *ReservationService) releaseOnFailure(ctx context.Context, reservationID string) {
	if err := s.seatLocks.ReleaseReservation(ctx, reservationID); err != nil {
		s.logger.Errorf("Failed to release reservation %s during rollback: %v", reservationID, err)
	}
}

// Cancel moves a PENDING or PAYMENT_PROCESSING booking to CANCELLED,
// releases its seats, and publishes booking.cancelled.
func (s *ReservationService) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingCancelled); err != nil {
		return err
	}

	if err := s.seatLocks.ReleaseReservation(ctx, booking.ReservationID.String()); err != nil {
		s.logger.Errorf("Failed to release reservation %s on cancel: %v", booking.ReservationID, err)
	}

	err = s.publisher.Publish(ctx, domain.BookingExchange, domain.RoutingKeyBookingCancelled, domain.BookingCancelledData{
		BookingID:     bookingID.String(),
		UserID:        booking.UserID.String(),
		ReservationID: booking.ReservationID.String(),
		Reason:        reason,
		CancelledAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Errorf("Failed to publish booking.cancelled for %s: %v", bookingID, err)
	}

	s.logger.Infof("Booking %s cancelled: %s", bookingID, reason)
	return nil
}

// GetBooking is the read path used by the HTTP surface.
func (s *ReservationService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

// ReleaseReservation exposes the idempotent release contract to collaborators.
func (s *ReservationService) ReleaseReservation(ctx context.Context, reservationID string) error {
	return s.seatLocks.ReleaseReservation(ctx, reservationID)
}

// RunExpirySweep cancels PENDING bookings whose expiry passed without a
// payment outcome, returning their seats.
func (s *ReservationService) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Expiry sweep started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweep stopped")
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *ReservationService) sweepExpired(ctx context.Context) {
	expired, err := s.bookings.ExpiredPending(ctx, 100)
	if err != nil {
		s.logger.Errorf("Failed to fetch expired bookings: %v", err)
		return
	}

	for _, booking := range expired {
		if err := s.Cancel(ctx, booking.ID, "expired"); err != nil {
			s.logger.Errorf("Failed to expire booking %s: %v", booking.ID, err)
		}
	}
}

func validateReserveRequest(req ReserveRequest) error {
	if req.UserID == "" {
		return errors.New("invalid user id")
	}
	if req.JourneyID == "" {
		return errors.New("invalid journey id")
	}
	if len(req.SeatIDs) == 0 {
		return errors.New("no seats selected")
	}
	if req.Amount <= 0 {
		return errors.New("invalid amount")
	}
	return nil
}
