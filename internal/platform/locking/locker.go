// Package locking provides distributed mutual exclusion across service
// replicas, backed by Redis.
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
)

// ErrNotObtained is returned when another holder owns the lock
var ErrNotObtained = errors.New("lock is held by another process")

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains named locks with a time to live
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// RedisLocker implements Locker with redislock
type RedisLocker struct {
	client  *redislock.Client
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

// NewRedisLocker creates a locker that fails fast when the lock is taken
func NewRedisLocker(client redislock.RedisClient, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		logger: logger,
	}
}

// WithRetry returns a copy retrying up to retries times, backoff apart
func (l *RedisLocker) WithRetry(retries int, backoff time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  l.client,
		retries: retries,
		backoff: backoff,
		logger:  l.logger,
	}
}

// Obtain tries to acquire key for ttl
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	var opts *redislock.Options
	if l.retries > 0 {
		opts = &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
		}
	}

	lock, err := l.client.Obtain(ctx, key, ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("Could not obtain lock", "key", key)
		return nil, ErrNotObtained
	}
	if err != nil {
		l.logger.Error("Error obtaining lock", "key", key, "error", err)
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return lock, nil
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// a release failure is only logged since the ttl bounds it anyway.
func WithLock(ctx context.Context, locker Locker, logger *slog.Logger, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := locker.Obtain(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.Warn("Failed to release lock", "key", key, "error", releaseErr)
		}
	}()

	return fn(ctx)
}
