package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jatra/booking-engine/internal/adapter/handler"
	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports/mocks"
	"github.com/jatra/booking-engine/internal/core/services"
)

func newHandler(t *testing.T) (*handler.BookingHandler, *mocks.SeatLocker, redismock.ClientMock) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	db, redisMock := redismock.NewClientMock()
	seatLocks := mocks.NewSeatLocker(t)
	bookings := mocks.NewBookingRepository(t)
	publisher := mocks.NewPublisher(t)

	svc := services.NewReservationService(
		seatLocks, bookings, services.NewIdempotencyService(db, logger),
		publisher, 10*time.Minute, logger)

	return handler.NewBookingHandler(svc), seatLocks, redisMock
}

func TestCreateBooking_SeatConflictReturns409WithSeat(t *testing.T) {
	h, seatLocks, redisMock := newHandler(t)

	key := "idempotency:reserve:tok-1"
	redisMock.ExpectGet(key).RedisNil()
	redisMock.ExpectSetNX(key+":lock", "1", 30*time.Second).SetVal(true)

	seatLocks.On("LockSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.SeatConflictError{JourneyID: "j1", SeatID: "14A"})

	body := map[string]any{
		"user_id":         uuid.NewString(),
		"journey_id":      uuid.NewString(),
		"seat_ids":        []string{"14A"},
		"amount":          1500,
		"payment_method":  "card",
		"idempotency_key": "tok-1",
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(string(payload)))
	rec := httptest.NewRecorder()

	h.CreateBooking(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "14A", resp["seat_id"])
	assert.Contains(t, resp["error"], "14A")
}

func TestCreateBooking_InvalidBody(t *testing.T) {
	h, _, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	h.CreateBooking(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_ValidationError(t *testing.T) {
	h, _, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"user_id":""}`))
	rec := httptest.NewRecorder()

	h.CreateBooking(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleaseReservation_MissingID(t *testing.T) {
	h, _, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/locks/release", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.ReleaseReservation(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
