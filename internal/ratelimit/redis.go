package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares fixed-window counters across instances. The window is
// anchored by the key's TTL: the first INCR of a window creates the key
// and arms its expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	k := "ratelimit:" + key

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		return 1, window, nil
	}

	resetIn, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if resetIn < 0 {
		// Key lost its expiry (crash between INCR and PEXPIRE); re-arm
		// rather than leaving a counter that never resets.
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		resetIn = window
	}

	return int(count), resetIn, nil
}

var _ Store = (*RedisStore)(nil)
