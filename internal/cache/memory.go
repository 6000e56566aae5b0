package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const backendMemory = "memory"

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore — in-memory LRU-кэш с TTL на уровне записи.
// Обёртка над hashicorp/golang-lru/v2/expirable; maxTTL ограничивает
// время жизни любой записи сверху.
type MemoryStore struct {
	lru    *expirable.LRU[string, memoryEntry]
	maxTTL time.Duration
	now    func() time.Time
}

// NewMemoryStore создаёт LRU-кэш на maxEntries записей.
func NewMemoryStore(maxEntries int, maxTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		lru:    expirable.NewLRU[string, memoryEntry](maxEntries, nil, maxTTL),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		cacheMissesTotal.WithLabelValues(backendMemory).Inc()
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		cacheMissesTotal.WithLabelValues(backendMemory).Inc()
		return nil, false, nil
	}
	cacheHitsTotal.WithLabelValues(backendMemory).Inc()
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > m.maxTTL {
		ttl = m.maxTTL
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.lru.Add(key, memoryEntry{value: buf, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Len возвращает число записей (включая ещё не вычищенные просроченные).
func (m *MemoryStore) Len() int {
	return m.lru.Len()
}
