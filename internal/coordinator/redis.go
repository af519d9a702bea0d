package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisCoordinator is the distributed Coordinator backend for multi-instance
// deployments. Each resource key maps to one redislock lock with a TTL well
// above any engine critical section.
type RedisCoordinator struct {
	locker  *redislock.Client
	timeout time.Duration
	ttl     time.Duration
}

var _ Coordinator = (*RedisCoordinator)(nil)

// NewRedisCoordinator creates a coordinator backed by the given redis client.
func NewRedisCoordinator(rdb *redis.Client, timeout time.Duration) *RedisCoordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisCoordinator{
		locker:  redislock.New(rdb),
		timeout: timeout,
		ttl:     30 * time.Second,
	}
}

// Acquire implements Coordinator. Keys are acquired in the same global sorted
// order as the in-process backend.
func (c *RedisCoordinator) Acquire(ctx context.Context, keys ...string) (ReleaseFunc, error) {
	ordered := sortedUnique(keys)

	deadline := time.Now().Add(c.timeout)
	backoff := redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(c.timeout/(50*time.Millisecond)))

	held := make([]*redislock.Lock, 0, len(ordered))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				slog.Warn("failed to release coordinator lock", slog.String("error", err.Error()))
			}
		}
	}

	for _, key := range ordered {
		if time.Now().After(deadline) {
			releaseHeld()
			return nil, apperrors.ErrResourceBusy
		}
		lock, err := c.locker.Obtain(ctx, "genfin:lock:"+key, c.ttl, &redislock.Options{RetryStrategy: backoff})
		if err != nil {
			releaseHeld()
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, apperrors.ErrResourceBusy
			}
			return nil, apperrors.NewAppError(500, "failed to obtain coordinator lock for "+key, err)
		}
		held = append(held, lock)
	}

	var released bool
	return func() {
		if !released {
			released = true
			releaseHeld()
		}
	}, nil
}
