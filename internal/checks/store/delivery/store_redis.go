package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "casecheck:delivery:"

// RedisStore tracks deliveries with SET NX so every instance behind a load
// balancer agrees on which delivery arrived first.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) MarkDelivered(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+deliveryID, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark delivery %s: %w", deliveryID, err)
	}
	return ok, nil
}

func (s *RedisStore) Forget(ctx context.Context, deliveryID string) error {
	if err := s.client.Del(ctx, keyPrefix+deliveryID).Err(); err != nil {
		return fmt.Errorf("forget delivery %s: %w", deliveryID, err)
	}
	return nil
}
