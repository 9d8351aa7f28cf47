package cachex

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Store = (*RedisStore)(nil)

// RedisStore is the production Store. Entries live at their key with the
// revalidation window as TTL; each tag keeps a redis set of member keys.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return err
	}

	for _, tag := range tags {
		tagKey := TagKey(tag)
		if err := s.redis.SAdd(ctx, tagKey, key).Err(); err != nil {
			return err
		}
		// The tag set outlives its members slightly; invalidating a tag with
		// already-expired members is just a few harmless DELs.
		if err := s.redis.Expire(ctx, tagKey, ttl+time.Hour).Err(); err != nil {
			return err
		}
	}

	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, tag string) error {
	tagKey := TagKey(tag)

	members, err := s.redis.SMembers(ctx, tagKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	if len(members) > 0 {
		if err := s.redis.Del(ctx, members...).Err(); err != nil {
			return err
		}
	}

	return s.redis.Del(ctx, tagKey).Err()
}
