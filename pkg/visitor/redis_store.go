package visitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in Redis as JSON under prefix+"visitor:"+id.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "visitor:" + id
}

func (s *RedisStore) Load(ctx context.Context, id string) ([]*http.Cookie, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stored []storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return fromStored(stored), nil
}

func (s *RedisStore) Save(ctx context.Context, id string, cookies []*http.Cookie, ttl time.Duration) error {
	raw, err := json.Marshal(toStored(cookies))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
