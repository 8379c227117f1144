package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/atelier-erp/settlement-engine/internal/lock"
)

const (
	defaultLockTTL = 30 * time.Second
	backoffStep    = 10 * time.Millisecond
	backoffMax     = 50 * time.Millisecond
)

// releaseScript deletes the lock only when held by this token, so an
// expired-and-reacquired lock is never released by the old holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ lock.Locker = (*RedisLocker)(nil)

// RedisLocker is a distributed keyed lock backed by SET NX PX. The TTL
// bounds how long a crashed holder can block a key.
type RedisLocker struct {
	client *goredis.Client
	ttl    time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	script *goredis.Script
}

func NewRedisLocker(client *goredis.Client, ttl time.Duration) (*RedisLocker, error) {
	return newRedisLocker(client, ttl, sleepWithContext)
}

func newRedisLocker(
	client *goredis.Client,
	ttl time.Duration,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisLocker{
		client: client,
		ttl:    ttl,
		sleep:  sleepFn,
		script: releaseScript,
	}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("locker is not initialized")
	}

	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return nil, fmt.Errorf("lock key is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	redisKey := fmt.Sprintf("lock:%s", normalizedKey)
	token := uuid.NewString()

	backoff := backoffStep
	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %q: %w", normalizedKey, err)
		}
		if acquired {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = l.script.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}

		if err := l.sleep(ctx, backoff); err != nil {
			return nil, err
		}

		backoff += backoffStep
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
