package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports"
	"github.com/jatra/booking-engine/internal/core/ports/mocks"
	"github.com/jatra/booking-engine/internal/core/services"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestLockSeats_Success(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, mockRedis := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	ctx := context.Background()
	ttl := 10 * time.Minute
	keys := []string{"seat-lock:journey-1:14A", "seat-lock:journey-1:14B"}

	mockLocks.On("AcquireAll", ctx, keys, "user-1", ttl).
		Return(ports.AcquireResult{OK: true, Acquired: keys}, nil)

	record, _ := json.Marshal(domain.Reservation{
		ReservationID: "res-1",
		JourneyID:     "journey-1",
		UserID:        "user-1",
		SeatIDs:       []string{"14A", "14B"},
	})
	mockRedis.ExpectSet("reservation:res-1", record, ttl).SetVal("OK")

	err := svc.LockSeats(ctx, "res-1", "journey-1", "user-1", []string{"14A", "14B"}, ttl)

	assert.NoError(t, err)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestLockSeats_ConflictReportsBlockingSeat(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, _ := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	ctx := context.Background()
	keys := []string{"seat-lock:journey-1:14A", "seat-lock:journey-1:14B"}

	mockLocks.On("AcquireAll", ctx, keys, "user-2", time.Minute).
		Return(ports.AcquireResult{OK: false, FailedKey: "seat-lock:journey-1:14B"}, nil)

	err := svc.LockSeats(ctx, "res-2", "journey-1", "user-2", []string{"14A", "14B"}, time.Minute)

	var conflict *domain.SeatConflictError
	if assert.ErrorAs(t, err, &conflict) {
		assert.Equal(t, "14B", conflict.SeatID)
		assert.Equal(t, "journey-1", conflict.JourneyID)
	}
}

func TestLockSeats_RecordStoreFailureRollsBack(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, mockRedis := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	ctx := context.Background()
	keys := []string{"seat-lock:journey-1:14A"}

	mockLocks.On("AcquireAll", ctx, keys, "user-1", time.Minute).
		Return(ports.AcquireResult{OK: true, Acquired: keys}, nil)
	mockLocks.On("ReleaseAll", ctx, keys, "user-1").Return(1, nil)

	record, _ := json.Marshal(domain.Reservation{
		ReservationID: "res-1",
		JourneyID:     "journey-1",
		UserID:        "user-1",
		SeatIDs:       []string{"14A"},
	})
	mockRedis.ExpectSet("reservation:res-1", record, time.Minute).SetErr(errors.New("connection reset"))

	err := svc.LockSeats(ctx, "res-1", "journey-1", "user-1", []string{"14A"}, time.Minute)

	assert.Error(t, err)
}

func TestLockSeats_NoSeats(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, _ := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	err := svc.LockSeats(context.Background(), "res-1", "journey-1", "user-1", nil, time.Minute)

	assert.Error(t, err)
}

func TestReleaseReservation_ReleasesRecordedSeats(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, mockRedis := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	ctx := context.Background()
	record, _ := json.Marshal(domain.Reservation{
		ReservationID: "res-1",
		JourneyID:     "journey-1",
		UserID:        "user-1",
		SeatIDs:       []string{"14A", "14B"},
	})

	mockRedis.ExpectGet("reservation:res-1").SetVal(string(record))
	mockLocks.On("ReleaseAll", ctx, []string{"seat-lock:journey-1:14A", "seat-lock:journey-1:14B"}, "user-1").
		Return(2, nil)
	mockRedis.ExpectDel("reservation:res-1").SetVal(1)

	err := svc.ReleaseReservation(ctx, "res-1")

	assert.NoError(t, err)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestReleaseReservation_MissingRecordIsIdempotent(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, mockRedis := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	mockRedis.ExpectGet("reservation:res-gone").RedisNil()

	err := svc.ReleaseReservation(context.Background(), "res-gone")

	assert.NoError(t, err)
	mockLocks.AssertNotCalled(t, "ReleaseAll")
}

func TestReleaseSeats_DelegatesToLockManager(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, _ := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	ctx := context.Background()
	mockLocks.On("ReleaseAll", ctx, []string{"seat-lock:journey-1:14A"}, "user-1").Return(1, nil)

	released, err := svc.ReleaseSeats(ctx, "journey-1", "user-1", []string{"14A"})

	assert.NoError(t, err)
	assert.Equal(t, 1, released)
}

func TestExtendSeats_DelegatesToLockManager(t *testing.T) {
	mockLocks := mocks.NewLockManager(t)
	db, _ := redismock.NewClientMock()

	svc := services.NewSeatLockService(mockLocks, db, testLogger())

	ctx := context.Background()
	mockLocks.On("ExtendAll", ctx, []string{"seat-lock:journey-1:14A"}, "user-1", 15*time.Minute).Return(1, nil)

	extended, err := svc.ExtendSeats(ctx, "journey-1", "user-1", []string{"14A"}, 15*time.Minute)

	assert.NoError(t, err)
	assert.Equal(t, 1, extended)
}
