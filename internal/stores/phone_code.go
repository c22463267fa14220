// Package stores implements the Redis-backed ephemeral state of the
// engine: one-time phone codes and opaque refresh token mappings.
package stores

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every Redis transport failure so callers can
// distinguish backend trouble from a plain miss.
var ErrUnavailable = errors.New("redis unavailable")

var errCodeMismatch = errors.New("code mismatch")

// PhoneCodeStore keeps at most one pending code per phone number.
// Saving again overwrites, which invalidates any earlier code.
type PhoneCodeStore struct {
	redis  *redis.Client
	prefix string
}

func NewPhoneCodeStore(redisClient *redis.Client) *PhoneCodeStore {
	return &PhoneCodeStore{
		redis:  redisClient,
		prefix: "pac",
	}
}

func (s *PhoneCodeStore) key(phone string) string {
	return s.prefix + ":" + phone
}

// Save stores the code under the phone number for ttl.
func (s *PhoneCodeStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(phone), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes a pending code. Used when dispatch fails after the
// code was written.
func (s *PhoneCodeStore) Delete(ctx context.Context, phone string) error {
	if err := s.redis.Del(ctx, s.key(phone)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Take atomically compares submitted against the stored code and
// deletes it on a match. At most one concurrent caller can observe
// true for a given code: the compare and the delete run under
// WATCH/MULTI, so a racing consume aborts the transaction and is
// retried against the then-empty key.
func (s *PhoneCodeStore) Take(ctx context.Context, phone, submitted string) (bool, error) {
	const maxRetries = 4
	key := s.key(phone)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}

			if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
				return errCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, errCodeMismatch):
				return false, nil
			default:
				return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		return true, nil
	}

	// Retries exhausted: somebody else kept touching the key, which
	// means the code is gone either way.
	return false, nil
}
