package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports/mocks"
	"github.com/jatra/booking-engine/internal/core/services"
)

type reservationFixture struct {
	seatLocks *mocks.SeatLocker
	bookings  *mocks.BookingRepository
	publisher *mocks.Publisher
	redisMock redismock.ClientMock
	svc       *services.ReservationService
}

func newReservationFixture(t *testing.T) *reservationFixture {
	db, redisMock := redismock.NewClientMock()
	logger := testLogger()

	f := &reservationFixture{
		seatLocks: mocks.NewSeatLocker(t),
		bookings:  mocks.NewBookingRepository(t),
		publisher: mocks.NewPublisher(t),
		redisMock: redisMock,
	}
	f.svc = services.NewReservationService(
		f.seatLocks, f.bookings, services.NewIdempotencyService(db, logger),
		f.publisher, 10*time.Minute, logger)
	return f
}

func reserveRequest(key string) services.ReserveRequest {
	return services.ReserveRequest{
		UserID:         uuid.NewString(),
		JourneyID:      uuid.NewString(),
		SeatIDs:        []string{"14A", "14B"},
		Amount:         2400,
		PaymentMethod:  "card",
		IdempotencyKey: key,
	}
}

func expectFreshIdempotencyKey(f *reservationFixture, token string) {
	key := "idempotency:reserve:" + token
	f.redisMock.ExpectGet(key).RedisNil()
	f.redisMock.ExpectSetNX(key+":lock", "1", 30*time.Second).SetVal(true)
	// Result caching and lock release are best-effort; no expectations set
	// for them here.
}

func TestReserve_Success(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	req := reserveRequest("tok-1")

	expectFreshIdempotencyKey(f, "tok-1")

	f.seatLocks.On("LockSeats", ctx, mock.AnythingOfType("string"), req.JourneyID, req.UserID, req.SeatIDs, 10*time.Minute).
		Return(nil)
	f.bookings.On("Create", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Status == domain.BookingPending && b.Amount == req.Amount && len(b.SeatIDs) == 2
	})).Return(nil)
	f.publisher.On("Publish", ctx, domain.BookingExchange, domain.RoutingKeyPaymentProcess,
		mock.MatchedBy(func(msg domain.PaymentMessage) bool {
			return msg.UserID == req.UserID && msg.RetryCount == 0 && msg.Amount == req.Amount
		})).Return(nil)

	resp, err := f.svc.Reserve(ctx, req)

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, string(domain.BookingPending), resp.Status)
		assert.NotEmpty(t, resp.BookingID)
		assert.NotEmpty(t, resp.ReservationID)
	}
}

func TestReserve_SeatConflictSurfacesBlockingSeat(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	req := reserveRequest("tok-2")

	expectFreshIdempotencyKey(f, "tok-2")

	f.seatLocks.On("LockSeats", ctx, mock.AnythingOfType("string"), req.JourneyID, req.UserID, req.SeatIDs, 10*time.Minute).
		Return(&domain.SeatConflictError{JourneyID: req.JourneyID, SeatID: "14B"})

	resp, err := f.svc.Reserve(ctx, req)

	assert.Nil(t, resp)
	var conflict *domain.SeatConflictError
	if assert.ErrorAs(t, err, &conflict) {
		assert.Equal(t, "14B", conflict.SeatID)
	}
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReserve_InFlightDuplicateRejected(t *testing.T) {
	f := newReservationFixture(t)
	req := reserveRequest("tok-3")

	key := "idempotency:reserve:tok-3"
	f.redisMock.ExpectGet(key).RedisNil()
	f.redisMock.ExpectSetNX(key+":lock", "1", 30*time.Second).SetVal(false)

	resp, err := f.svc.Reserve(context.Background(), req)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrIdempotencyInProgress)
	f.seatLocks.AssertNotCalled(t, "LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReserve_ReplayReturnsCachedResponse(t *testing.T) {
	f := newReservationFixture(t)
	req := reserveRequest("tok-4")

	cached := `{"booking_id":"b1","reservation_id":"r1","amount":2400,"status":"PENDING","expires_at":"2026-01-01T00:00:00Z"}`
	f.redisMock.ExpectGet("idempotency:reserve:tok-4").SetVal(cached)

	resp, err := f.svc.Reserve(context.Background(), req)

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, "b1", resp.BookingID)
		assert.Equal(t, "r1", resp.ReservationID)
	}
	f.seatLocks.AssertNotCalled(t, "LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReserve_PublishFailureRollsBack(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	req := reserveRequest("tok-5")

	expectFreshIdempotencyKey(f, "tok-5")

	f.seatLocks.On("LockSeats", ctx, mock.AnythingOfType("string"), req.JourneyID, req.UserID, req.SeatIDs, 10*time.Minute).
		Return(nil)
	f.bookings.On("Create", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", ctx, domain.BookingExchange, domain.RoutingKeyPaymentProcess, mock.Anything).
		Return(assert.AnError)
	f.seatLocks.On("ReleaseReservation", ctx, mock.AnythingOfType("string")).Return(nil)
	f.bookings.On("UpdateStatus", ctx, mock.AnythingOfType("uuid.UUID"), domain.BookingCancelled).Return(nil)

	resp, err := f.svc.Reserve(ctx, req)

	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestReserve_Validation(t *testing.T) {
	f := newReservationFixture(t)

	cases := []struct {
		name string
		req  services.ReserveRequest
	}{
		{"missing user", services.ReserveRequest{JourneyID: uuid.NewString(), SeatIDs: []string{"1A"}, Amount: 100}},
		{"missing journey", services.ReserveRequest{UserID: uuid.NewString(), SeatIDs: []string{"1A"}, Amount: 100}},
		{"no seats", services.ReserveRequest{UserID: uuid.NewString(), JourneyID: uuid.NewString(), Amount: 100}},
		{"bad amount", services.ReserveRequest{UserID: uuid.NewString(), JourneyID: uuid.NewString(), SeatIDs: []string{"1A"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.svc.Reserve(context.Background(), tc.req)
			assert.Nil(t, resp)
			assert.Error(t, err)
		})
	}
}

func TestCancel_ReleasesSeatsAndPublishes(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	reservationID := uuid.New()
	booking := &domain.Booking{
		ID:            bookingID,
		UserID:        uuid.New(),
		JourneyID:     uuid.New(),
		ReservationID: reservationID,
		Status:        domain.BookingPending,
	}

	f.bookings.On("GetByID", ctx, bookingID).Return(booking, nil)
	f.bookings.On("UpdateStatus", ctx, bookingID, domain.BookingCancelled).Return(nil)
	f.seatLocks.On("ReleaseReservation", ctx, reservationID.String()).Return(nil)
	f.publisher.On("Publish", ctx, domain.BookingExchange, domain.RoutingKeyBookingCancelled,
		mock.MatchedBy(func(data domain.BookingCancelledData) bool {
			return data.BookingID == bookingID.String() && data.Reason == "user request"
		})).Return(nil)

	err := f.svc.Cancel(ctx, bookingID, "user request")

	assert.NoError(t, err)
}

func TestCancel_TerminalBookingRejected(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := &domain.Booking{
		ID:            bookingID,
		ReservationID: uuid.New(),
		Status:        domain.BookingConfirmed,
	}

	f.bookings.On("GetByID", ctx, bookingID).Return(booking, nil)
	f.bookings.On("UpdateStatus", ctx, bookingID, domain.BookingCancelled).Return(domain.ErrBookingTerminal)

	err := f.svc.Cancel(ctx, bookingID, "user request")

	assert.ErrorIs(t, err, domain.ErrBookingTerminal)
	f.seatLocks.AssertNotCalled(t, "ReleaseReservation", mock.Anything, mock.Anything)
}
