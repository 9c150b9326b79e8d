package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in Redis, one JSON document per session key,
// which makes sessions survive restarts and shared across nodes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client; the caller keeps ownership of it.
// An empty prefix defaults to "session:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Find(ctx context.Context, id string) (map[string]any, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, values map[string]any, ttl time.Duration) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+id, data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}
