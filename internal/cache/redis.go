package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// RedisStore — кэш в Redis. Ключи получают общий префикс,
// TTL задаётся через SET ... EX.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore создаёт кэш поверх готового клиента Redis.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheMissesTotal.WithLabelValues(backendRedis).Inc()
			return nil, false, nil
		}
		cacheErrorsTotal.WithLabelValues(backendRedis).Inc()
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	cacheHitsTotal.WithLabelValues(backendRedis).Inc()
	return data, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		cacheErrorsTotal.WithLabelValues(backendRedis).Inc()
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		cacheErrorsTotal.WithLabelValues(backendRedis).Inc()
		return fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return nil
}

// Name возвращает имя зависимости для health endpoint.
func (r *RedisStore) Name() string { return "redis" }

// CheckReady проверяет доступность Redis через PING.
func (r *RedisStore) CheckReady(ctx context.Context) (status string, message string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return "fail", fmt.Sprintf("Redis недоступен: %v", err)
	}
	return "ok", "подключение активно"
}
