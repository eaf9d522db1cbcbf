// Package ratelimit implements a fixed-window request limiter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gasfutures:ratelimit:"

// Limiter counts requests per key in fixed windows
type Limiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// New creates a Limiter. It pings Redis so misconfiguration is caught at startup.
func New(ctx context.Context, addr, password string, limit int, window time.Duration) (*Limiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewWithClient(rdb, limit, window), nil
}

// NewWithClient creates a Limiter on an existing client
func NewWithClient(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		rdb:    rdb,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow counts one request for key and reports whether it is within the limit
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := l.windowKey(key)

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", key, err)
	}
	return incr.Val() <= l.limit, nil
}

// Close closes the Redis connection
func (l *Limiter) Close() error {
	return l.rdb.Close()
}

// windowKey buckets the key by the start of the current window
func (l *Limiter) windowKey(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return keyPrefix + key + ":" + strconv.FormatInt(bucket, 10)
}
