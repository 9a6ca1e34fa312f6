package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports"
)

const (
	seatLockKeyPrefix    = "seat-lock"
	reservationKeyPrefix = "reservation"
)

// SeatLockService maps (journey, seat) pairs onto lock-manager keys and
// keeps a reservation record alongside the locks so a later release needs
// only the reservation id.
type SeatLockService struct {
	locks  ports.LockManager
	client redis.Cmdable
	logger *logrus.Logger
}

func NewSeatLockService(locks ports.LockManager, client redis.Cmdable, logger *logrus.Logger) *SeatLockService {
	return &SeatLockService{locks: locks, client: client, logger: logger}
}

func seatLockKey(journeyID, seatID string) string {
	return fmt.Sprintf("%s:%s:%s", seatLockKeyPrefix, journeyID, seatID)
}

func reservationKey(reservationID string) string {
	return fmt.Sprintf("%s:%s", reservationKeyPrefix, reservationID)
}

func seatLockKeys(journeyID string, seatIDs []string) []string {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = seatLockKey(journeyID, seatID)
	}
	return keys
}

// LockSeats acquires every seat in the set or none of them. On conflict the
// caller gets back the specific seat that blocked, as a
// *domain.SeatConflictError.
func (s *SeatLockService) LockSeats(ctx context.Context, reservationID, journeyID, userID string, seatIDs []string, ttl time.Duration) error {
	if len(seatIDs) == 0 {
		return errors.New("no seats to lock")
	}

	keys := seatLockKeys(journeyID, seatIDs)

	result, err := s.locks.AcquireAll(ctx, keys, userID, ttl)
	if err != nil {
		return fmt.Errorf("lock seats for journey %s: %w", journeyID, err)
	}

	if !result.OK {
		return &domain.SeatConflictError{
			JourneyID: journeyID,
			SeatID:    seatIDFromLockKey(result.FailedKey, journeyID),
		}
	}

	record := domain.Reservation{
		ReservationID: reservationID,
		JourneyID:     journeyID,
		UserID:        userID,
		SeatIDs:       seatIDs,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		s.rollback(ctx, keys, userID)
		return fmt.Errorf("marshal reservation %s: %w", reservationID, err)
	}

	if err := s.client.Set(ctx, reservationKey(reservationID), payload, ttl).Err(); err != nil {
		s.rollback(ctx, keys, userID)
		return fmt.Errorf("store reservation %s: %w", reservationID, err)
	}

	s.logger.Infof("Locked %d seats on journey %s for reservation %s", len(seatIDs), journeyID, reservationID)
	return nil
}

func (s *SeatLockService) rollback(ctx context.Context, keys []string, userID string) {
	if _, err := s.locks.ReleaseAll(ctx, keys, userID); err != nil {
		s.logger.Errorf("Failed to roll back seat locks: %v", err)
	}
}

// ReleaseSeats releases the given seats if still held by userID and returns
// the number released.
func (s *SeatLockService) ReleaseSeats(ctx context.Context, journeyID, userID string, seatIDs []string) (int, error) {
	return s.locks.ReleaseAll(ctx, seatLockKeys(journeyID, seatIDs), userID)
}

// ExtendSeats resets the TTL on seats still held by userID, for long-held
// reservations such as a checkout under review.
func (s *SeatLockService) ExtendSeats(ctx context.Context, journeyID, userID string, seatIDs []string, ttl time.Duration) (int, error) {
	return s.locks.ExtendAll(ctx, seatLockKeys(journeyID, seatIDs), userID, ttl)
}

// ReleaseReservation releases every seat a reservation holds and removes its
// record. Idempotent: a missing record means the seats were already released
// or expired, which is success.
func (s *SeatLockService) ReleaseReservation(ctx context.Context, reservationID string) error {
	key := reservationKey(reservationID)

	payload, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("load reservation %s: %w", reservationID, err)
	}

	var record domain.Reservation
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return fmt.Errorf("decode reservation %s: %w", reservationID, err)
	}

	released, err := s.locks.ReleaseAll(ctx, seatLockKeys(record.JourneyID, record.SeatIDs), record.UserID)
	if err != nil {
		return fmt.Errorf("release reservation %s: %w", reservationID, err)
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Warnf("Failed to delete reservation record %s: %v", reservationID, err)
	}

	s.logger.Infof("Released %d seats for reservation %s", released, reservationID)
	return nil
}

func seatIDFromLockKey(key, journeyID string) string {
	prefix := fmt.Sprintf("%s:%s:", seatLockKeyPrefix, journeyID)
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
