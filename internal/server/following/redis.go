package following

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each following list as a Redis set with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Save replaces the set atomically.
func (s *RedisStore) Save(ctx context.Context, accountID string, ids []string) error {
	k := key(accountID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		if len(ids) == 0 {
			return nil
		}
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		p.SAdd(ctx, k, members...)
		if s.ttl > 0 {
			p.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, accountID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, key(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
