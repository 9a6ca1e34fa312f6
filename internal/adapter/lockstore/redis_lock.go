package lockstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jatra/booking-engine/internal/core/ports"
)

// Owner-checked multi-key release. A key is deleted only while its value
// still equals the owner token, so a lock re-acquired after expiry by
// someone else is never touched.
const releaseScript = `
local released = 0
for i, key in ipairs(KEYS) do
  if redis.call("GET", key) == ARGV[1] then
    released = released + redis.call("DEL", key)
  end
end
return released
`

// Owner-checked multi-key TTL extension.
const extendScript = `
local extended = 0
for i, key in ipairs(KEYS) do
  if redis.call("GET", key) == ARGV[1] then
    extended = extended + redis.call("EXPIRE", key, ARGV[2])
  end
end
return extended
`

// RedisLockManager implements ports.LockManager on the shared expiring key
// store. Every check-then-act runs either as a single SET NX or inside a
// Lua script, so concurrent callers racing on a key never both win.
type RedisLockManager struct {
	client redis.Cmdable
	logger *logrus.Logger
}

func NewRedisLockManager(client redis.Cmdable, logger *logrus.Logger) *RedisLockManager {
	return &RedisLockManager{client: client, logger: logger}
}

// AcquireAll attempts a conditional set on each key in lexicographic order.
// On the first key already held it releases everything acquired in this
// call and reports that key; no partial lock set is ever left behind. The
// stable order keeps two callers racing over overlapping sets from
// deadlocking each other.
func (m *RedisLockManager) AcquireAll(ctx context.Context, keys []string, owner string, ttl time.Duration) (ports.AcquireResult, error) {
	ordered := make([]string, len(keys))
	copy(ordered, keys)
	sort.Strings(ordered)

	acquired := make([]string, 0, len(ordered))

	for _, key := range ordered {
		ok, err := m.client.SetNX(ctx, key, owner, ttl).Result()
		if err != nil {
			m.rollback(ctx, acquired, owner)
			return ports.AcquireResult{}, fmt.Errorf("acquire lock %s: %w", key, err)
		}

		if !ok {
			m.rollback(ctx, acquired, owner)
			return ports.AcquireResult{OK: false, FailedKey: key}, nil
		}

		acquired = append(acquired, key)
	}

	return ports.AcquireResult{OK: true, Acquired: acquired}, nil
}

func (m *RedisLockManager) rollback(ctx context.Context, acquired []string, owner string) {
	if len(acquired) == 0 {
		return
	}
	if _, err := m.ReleaseAll(ctx, acquired, owner); err != nil {
		// The TTL still reclaims these eventually.
		m.logger.Errorf("Failed to roll back %d partial locks: %v", len(acquired), err)
	}
}

// ReleaseAll deletes only keys currently owned by owner and returns how many
// were released. Keys that expired or were re-acquired by another owner are
// skipped silently.
func (m *RedisLockManager) ReleaseAll(ctx context.Context, keys []string, owner string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := m.client.Eval(ctx, releaseScript, keys, owner).Int()
	if err != nil {
		return 0, fmt.Errorf("release locks: %w", err)
	}
	return n, nil
}

// ExtendAll resets the TTL on keys currently owned by owner and returns how
// many were extended.
func (m *RedisLockManager) ExtendAll(ctx context.Context, keys []string, owner string, ttl time.Duration) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	seconds := int(ttl / time.Second)
	n, err := m.client.Eval(ctx, extendScript, keys, owner, seconds).Int()
	if err != nil {
		return 0, fmt.Errorf("extend locks: %w", err)
	}
	return n, nil
}
