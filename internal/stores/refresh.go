package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound reports a refresh mapping that does not exist.
// Expired and revoked tokens are indistinguishable here.
var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshStore maps hashed refresh tokens to account ids. Keys are
// hashes of the issued token; the plaintext never reaches Redis.
type RefreshStore struct {
	redis  *redis.Client
	prefix string
}

func NewRefreshStore(redisClient *redis.Client) *RefreshStore {
	return &RefreshStore{
		redis:  redisClient,
		prefix: "par",
	}
}

func (s *RefreshStore) key(tokenHash string) string {
	return s.prefix + ":" + tokenHash
}

// Put records the mapping for ttl.
func (s *RefreshStore) Put(ctx context.Context, tokenHash, accountID string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(tokenHash), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get resolves the account id behind a token hash without consuming
// the mapping.
func (s *RefreshStore) Get(ctx context.Context, tokenHash string) (string, error) {
	accountID, err := s.redis.Get(ctx, s.key(tokenHash)).Result()
	switch {
	case err == nil:
		return accountID, nil
	case errors.Is(err, redis.Nil):
		return "", ErrTokenNotFound
	default:
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// Delete removes the mapping. Deleting an absent mapping is not an
// error; revocation is idempotent.
func (s *RefreshStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.redis.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
