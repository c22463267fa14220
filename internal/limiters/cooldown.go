// Package limiters holds the Redis-backed send throttles.
package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCooldownActive means a send happened within the window.
	ErrCooldownActive = errors.New("cooldown active")
	// ErrUnavailable wraps Redis transport failures.
	ErrUnavailable = errors.New("limiter redis unavailable")
)

// SendCooldown enforces one code send per phone per window using a
// SET NX marker with the window as TTL.
type SendCooldown struct {
	redis  *redis.Client
	prefix string
	window time.Duration
}

func NewSendCooldown(redisClient *redis.Client, window time.Duration) *SendCooldown {
	return &SendCooldown{
		redis:  redisClient,
		prefix: "pacd",
		window: window,
	}
}

func (l *SendCooldown) key(phone string) string {
	return l.prefix + ":" + phone
}

// Reserve claims the window for phone. Exactly one concurrent caller
// wins; the rest get ErrCooldownActive until the TTL lapses.
func (l *SendCooldown) Reserve(ctx context.Context, phone string) error {
	ok, err := l.redis.SetNX(ctx, l.key(phone), "1", l.window).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrCooldownActive
	}
	return nil
}

// Release frees the window early, so a failed dispatch does not burn
// the caller's only attempt for the next minute.
func (l *SendCooldown) Release(ctx context.Context, phone string) error {
	if err := l.redis.Del(ctx, l.key(phone)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
