// redis_store.go — бэкенд кэша в Redis (go-redis v9).
// TTL обеспечивается самим Redis; 0 — ключ без срока жизни.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore — Store поверх Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore создаёт хранилище кэша поверх клиента Redis.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get возвращает значение ключа; redis.Nil — промах.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set сохраняет значение ключа. ttl == 0 — без истечения.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Del удаляет ключ.
func (r *RedisStore) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
