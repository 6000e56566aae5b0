package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupRedis запускает Redis в Docker-контейнере через testcontainers.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "docker.io/redis:7-alpine")
	require.NoError(t, err, "Не удалось запустить Redis контейнер")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestRedisStore(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client, "fw:test:")

	_, ok, err := s.Get(ctx, "Funko_1")
	require.NoError(t, err)
	assert.False(t, ok, "ожидался cache miss для нового ключа")

	require.NoError(t, s.Set(ctx, "Funko_1", []byte("pikachu"), time.Minute))

	got, ok, err := s.Get(ctx, "Funko_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pikachu", string(got))

	// Ключ хранится с префиксом и TTL
	ttl, err := client.TTL(ctx, "fw:test:Funko_1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, "Funko_1"))
	_, ok, err = s.Get(ctx, "Funko_1")
	require.NoError(t, err)
	assert.False(t, ok, "ожидался cache miss после Delete")

	status, _ := s.CheckReady(ctx)
	assert.Equal(t, "ok", status)
}

func TestRedisStore_Expiry(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client, "fw:test:")

	require.NoError(t, s.Set(ctx, "short", []byte("1"), time.Second))
	time.Sleep(1500 * time.Millisecond)

	_, ok, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "запись должна истечь")
}

func TestRedisStore_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewRedisStore(client, "fw:")

	_, _, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	status, _ := s.CheckReady(context.Background())
	assert.Equal(t, "fail", status)
}
