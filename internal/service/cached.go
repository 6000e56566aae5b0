// cached.go — чтение по схеме cache-aside.
// Ошибки кэша не прерывают запрос: они логируются, данные читаются из БД.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/funkoworld/internal/cache"
)

// Префиксы ключей кэша.
const (
	categoryKeyPrefix = "Category_"
	funkoKeyPrefix    = "Funko_"
)

// DefaultCacheTTL — время жизни записи кэша по умолчанию.
const DefaultCacheTTL = 5 * time.Minute

type readCache struct {
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

func newReadCache(store cache.Store, ttl time.Duration, logger *slog.Logger) *readCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &readCache{store: store, ttl: ttl, logger: logger}
}

// cachedGet возвращает значение из кэша или false при промахе и ошибке.
func cachedGet[T any](ctx context.Context, c *readCache, key string) (*T, bool) {
	if c.store == nil {
		return nil, false
	}
	v, ok, err := cache.GetJSON[T](ctx, c.store, key)
	if err != nil {
		c.logger.Warn("Ошибка чтения кэша",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return v, ok
}

func (c *readCache) set(ctx context.Context, key string, v any) {
	if c.store == nil {
		return
	}
	if err := cache.SetJSON(ctx, c.store, key, v, c.ttl); err != nil {
		c.logger.Warn("Ошибка записи кэша",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (c *readCache) invalidate(ctx context.Context, key string) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Error("Ошибка инвалидации кэша",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
