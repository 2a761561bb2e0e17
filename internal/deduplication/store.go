package deduplication

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wahook/internal/constants"
)

// Store records that a message id has been seen. Claim returns true only for
// the first caller within ttl. Release forgets the id so it can be claimed
// again.
type Store interface {
	Claim(ctx context.Context, messageID string, seenAt time.Time, ttl time.Duration) (bool, error)
	Release(ctx context.Context, messageID string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func Key(messageID string) string {
	return constants.CacheKeyPrefixDedup + messageID
}

func (s *RedisStore) Claim(ctx context.Context, messageID string, seenAt time.Time, ttl time.Duration) (bool, error) {
	first, err := s.client.SetNX(ctx, Key(messageID), seenAt.UnixMilli(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", messageID, err)
	}
	return first, nil
}

func (s *RedisStore) Release(ctx context.Context, messageID string) error {
	if err := s.client.Del(ctx, Key(messageID)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", messageID, err)
	}
	return nil
}
