// Пакет cache — кэш сущностей каталога для чтения по схеме cache-aside.
// Store — абстракция над хранилищем (in-memory LRU или Redis),
// создаётся приложением и передаётся в сервисы.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fw_cache_hits_total",
		Help: "Общее количество попаданий в кэш.",
	}, []string{"backend"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fw_cache_misses_total",
		Help: "Общее количество промахов кэша.",
	}, []string{"backend"})
	cacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fw_cache_errors_total",
		Help: "Общее количество ошибок обращения к кэшу.",
	}, []string{"backend"})
)

// Store — хранилище кэша: get / set-with-ttl / delete по строковому ключу.
// Значения хранятся как байты, поэтому вызывающие не делят между собой
// изменяемые структуры.
type Store interface {
	// Get возвращает значение и true при попадании.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set сохраняет значение на время ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete удаляет ключ; отсутствие ключа не ошибка.
	Delete(ctx context.Context, key string) error
}

// GetJSON читает значение по ключу и декодирует его из JSON.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("ошибка декодирования записи кэша %s: %w", key, err)
	}
	return &v, true, nil
}

// SetJSON кодирует значение в JSON и сохраняет его на время ttl.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ошибка кодирования записи кэша %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}
