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

// SagaConfig tunes the business-level retry and the gateway status poll.
type SagaConfig struct {
	MaxRetries      int
	PollInterval    time.Duration
	PollMaxAttempts int
}

func DefaultSagaConfig() SagaConfig {
	return SagaConfig{
		MaxRetries:      3,
		PollInterval:    2 * time.Second,
		PollMaxAttempts: 10,
	}
}

// PaymentSaga drives a booking through the asynchronous payment workflow:
// initiate at the gateway, poll for the outcome, confirm on success, and on
// repeated failure compensate by releasing the reservation's seats. Saga
// retries are new messages republished with retryCount+1, a mechanism
// deliberately separate from the broker's redelivery-on-nack.
type PaymentSaga struct {
	bookings  ports.BookingRepository
	gateway   ports.PaymentGateway
	seatLocks ports.SeatLocker
	publisher ports.Publisher
	config    SagaConfig
	logger    *logrus.Logger
}

func NewPaymentSaga(
	bookings ports.BookingRepository,
	gateway ports.PaymentGateway,
	seatLocks ports.SeatLocker,
	publisher ports.Publisher,
	config SagaConfig,
	logger *logrus.Logger,
) *PaymentSaga {
	return &PaymentSaga{
		bookings:  bookings,
		gateway:   gateway,
		seatLocks: seatLocks,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// consumedEvent is the broker envelope with the payload left raw.
type consumedEvent struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// HandleDelivery is the broker handler for the payment processing queue.
// An error return requeues the delivery at the broker level; business
// failures are absorbed here and retried by republishing instead.
func (s *PaymentSaga) HandleDelivery(ctx context.Context, body []byte) error {
	var envelope consumedEvent
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}

	var msg domain.PaymentMessage
	if err := json.Unmarshal(envelope.Data, &msg); err != nil {
		return fmt.Errorf("decode payment message (event %s): %w", envelope.EventID, err)
	}

	return s.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one payment attempt for a booking.
func (s *PaymentSaga) ProcessMessage(ctx context.Context, msg domain.PaymentMessage) error {
	s.logger.Infof("Processing payment for booking %s, attempt %d", msg.BookingID, msg.RetryCount+1)

	bookingID, err := uuid.Parse(msg.BookingID)
	if err != nil {
		return fmt.Errorf("invalid booking id %q: %w", msg.BookingID, err)
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingPaymentProcessing); err != nil {
		if errors.Is(err, domain.ErrBookingTerminal) {
			// A late retry arrived after the booking already reached a
			// terminal state. Nothing more to do for this message.
			s.logger.Warnf("Booking %s already terminal, dropping payment message", msg.BookingID)
			return nil
		}
		// Store unavailable: let the broker redeliver.
		return fmt.Errorf("mark booking %s processing: %w", msg.BookingID, err)
	}

	paymentID, status, attemptErr := s.attemptPayment(ctx, msg)
	if attemptErr == nil && status == domain.PaymentCompleted {
		return s.confirm(ctx, bookingID, msg, paymentID)
	}

	reason := "payment failed"
	if attemptErr != nil {
		reason = attemptErr.Error()
	}
	return s.handleFailure(ctx, bookingID, msg, reason)
}

// attemptPayment initiates one payment at the gateway and polls until it
// settles. Network-level retries inside the gateway client are distinct
// from the saga-level retry handled by the caller.
func (s *PaymentSaga) attemptPayment(ctx context.Context, msg domain.PaymentMessage) (string, domain.PaymentStatus, error) {
	payment, err := s.gateway.Initiate(ctx, ports.InitiatePaymentRequest{
		UserID:        msg.UserID,
		ReservationID: msg.ReservationID,
		Amount:        msg.Amount,
		PaymentMethod: msg.PaymentMethod,
		Details:       msg.PaymentDetails,
	})
	if err != nil {
		return "", "", fmt.Errorf("initiate payment: %w", err)
	}

	s.logger.Infof("Payment %s initiated for booking %s", payment.ID, msg.BookingID)

	status, err := s.pollPaymentStatus(ctx, payment.ID)
	if err != nil {
		return payment.ID, "", err
	}
	return payment.ID, status, nil
}

// pollPaymentStatus checks the gateway on a fixed interval until the payment
// settles or the attempt ceiling is hit. Hitting the ceiling fails this
// attempt the same way a gateway-reported failure does.
func (s *PaymentSaga) pollPaymentStatus(ctx context.Context, paymentID string) (domain.PaymentStatus, error) {
	for attempt := 1; attempt <= s.config.PollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.config.PollInterval):
		}

		status, err := s.gateway.GetStatus(ctx, paymentID)
		if err != nil {
			s.logger.Warnf("Failed to check payment %s status (attempt %d): %v", paymentID, attempt, err)
			continue
		}

		if status == domain.PaymentCompleted || status == domain.PaymentFailed {
			return status, nil
		}

		s.logger.Debugf("Payment %s status %s, polling again", paymentID, status)
	}

	return "", fmt.Errorf("payment status polling timed out for %s", paymentID)
}

// confirm is the single success exit: the booking becomes CONFIRMED with the
// gateway's payment id stamped, and booking.confirmed is published.
func (s *PaymentSaga) confirm(ctx context.Context, bookingID uuid.UUID, msg domain.PaymentMessage, paymentID string) error {
	confirmedAt := time.Now().UTC()

	if err := s.bookings.Confirm(ctx, bookingID, paymentID, confirmedAt); err != nil {
		if errors.Is(err, domain.ErrBookingTerminal) {
			s.logger.Warnf("Booking %s already terminal, skipping confirm", msg.BookingID)
			return nil
		}
		return fmt.Errorf("confirm booking %s: %w", msg.BookingID, err)
	}

	err := s.publisher.Publish(ctx, domain.BookingExchange, domain.RoutingKeyBookingConfirmed, domain.BookingConfirmedData{
		BookingID:     msg.BookingID,
		UserID:        msg.UserID,
		ReservationID: msg.ReservationID,
		PaymentID:     paymentID,
		ConfirmedAt:   confirmedAt,
	})
	if err != nil {
		// The booking is confirmed either way; the event is best-effort
		// once the terminal write has landed.
		s.logger.Errorf("Failed to publish booking.confirmed for %s: %v", msg.BookingID, err)
	}

	s.logger.Infof("Booking %s confirmed with payment %s", msg.BookingID, paymentID)
	return nil
}

// handleFailure republishes the message with retryCount+1 while retries
// remain; once exhausted it terminalizes the booking, releases the seats it
// held, and publishes payment.failed.
func (s *PaymentSaga) handleFailure(ctx context.Context, bookingID uuid.UUID, msg domain.PaymentMessage, reason string) error {
	s.logger.Errorf("Payment attempt failed for booking %s: %s", msg.BookingID, reason)

	if msg.RetryCount < s.config.MaxRetries {
		retry := msg
		retry.RetryCount++

		if err := s.publisher.Publish(ctx, domain.BookingExchange, domain.RoutingKeyPaymentProcess, retry); err != nil {
			// Without the retry message the booking would hang in
			// PAYMENT_PROCESSING; requeue this delivery instead.
			return fmt.Errorf("republish payment retry for %s: %w", msg.BookingID, err)
		}

		s.logger.Infof("Requeued payment for booking %s, attempt %d", msg.BookingID, retry.RetryCount+1)
		return nil
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingPaymentFailed); err != nil {
		if errors.Is(err, domain.ErrBookingTerminal) {
			s.logger.Warnf("Booking %s already terminal, skipping failure write", msg.BookingID)
			return nil
		}
		return fmt.Errorf("mark booking %s failed: %w", msg.BookingID, err)
	}

	// Compensation: give the seats back. Release is idempotent, so a failure
	// here is logged and never blocks the terminal event.
	if err := s.releaseWithRetry(ctx, msg.ReservationID); err != nil {
		s.logger.Errorf("Failed to release seats for booking %s: %v", msg.BookingID, err)
	} else {
		s.logger.Infof("Seats released for failed booking %s", msg.BookingID)
	}

	err := s.publisher.Publish(ctx, domain.BookingExchange, domain.RoutingKeyPaymentFailed, domain.PaymentFailedData{
		BookingID:     msg.BookingID,
		UserID:        msg.UserID,
		ReservationID: msg.ReservationID,
		Reason:        reason,
		FailedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.logger.Errorf("Failed to publish payment.failed for %s: %v", msg.BookingID, err)
	}

	s.logger.Errorf("Booking %s failed after %d retries", msg.BookingID, s.config.MaxRetries)
	return nil
}

func (s *PaymentSaga) releaseWithRetry(ctx context.Context, reservationID string) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		if lastErr = s.seatLocks.ReleaseReservation(ctx, reservationID); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
