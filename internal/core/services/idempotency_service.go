package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jatra/booking-engine/internal/core/domain"
)

const (
	idempotencyResultTTL = 24 * time.Hour
	idempotencyLockTTL   = 30 * time.Second
)

// IdempotencyService deduplicates logical operations across service
// instances. The cached result is returned verbatim for replays; a short
// companion lock guards the in-flight window so concurrent duplicates do
// not execute the operation twice.
type IdempotencyService struct {
	client redis.Cmdable
	logger *logrus.Logger
}

func NewIdempotencyService(client redis.Cmdable, logger *logrus.Logger) *IdempotencyService {
	return &IdempotencyService{client: client, logger: logger}
}

// GenerateKey derives a deterministic key from the operation prefix and the
// request payload.
func (s *IdempotencyService) GenerateKey(prefix string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal idempotency payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("idempotency:%s:%s", prefix, hex.EncodeToString(sum[:])), nil
}

// Check returns the cached result for key, or nil if this is the first
// execution.
func (s *IdempotencyService) Check(ctx context.Context, key string) ([]byte, error) {
	cached, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("check idempotency %s: %w", key, err)
	}

	s.logger.Infof("Idempotent request detected: %s", key)
	return cached, nil
}

// Store caches the operation result under key.
func (s *IdempotencyService) Store(ctx context.Context, key string, result []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = idempotencyResultTTL
	}
	if err := s.client.Set(ctx, key, result, ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency result %s: %w", key, err)
	}
	return nil
}

// AcquireLock guards the in-flight window for key. False means another
// request with the same key is currently executing.
func (s *IdempotencyService) AcquireLock(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, key+":lock", "1", idempotencyLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire idempotency lock %s: %w", key, err)
	}
	return ok, nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key+":lock").Err(); err != nil {
		s.logger.Errorf("Failed to release idempotency lock %s: %v", key, err)
	}
}

// Do wraps fn with the idempotency protocol: a cached result is returned
// verbatim without re-execution; if the in-flight lock is denied the caller
// gets domain.ErrIdempotencyInProgress; otherwise fn runs exactly once and
// its result is cached. The lock is released on every exit path.
func (s *IdempotencyService) Do(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	cached, err := s.Check(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	ok, err := s.AcquireLock(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrIdempotencyInProgress
	}
	defer s.ReleaseLock(ctx, key)

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Store(ctx, key, result, 0); err != nil {
		// The operation itself succeeded; a replay will just re-execute.
		s.logger.Errorf("Failed to cache idempotency result %s: %v", key, err)
	}

	return result, nil
}
