package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ButyrinIA/postboard/internal/storage"
)

func TestRedisStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("нужен docker")
	}

	ctx := context.Background()
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Не удалось запустить контейнер Redis: %v", err)
	}
	defer redisC.Terminate(ctx)

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)
	addr := host + ":" + port.Port()

	store, err := New(ctx, Options{Addr: addr, Prefix: "test:"})
	require.NoError(t, err, "Не удалось инициализировать RedisStorage")
	defer store.Close()

	t.Run("Set and Get", func(t *testing.T) {
		assert.NoError(t, store.Set(ctx, "token", "abc"))
		got, err := store.Get(ctx, "token")
		assert.NoError(t, err)
		assert.Equal(t, "abc", got)
	})

	t.Run("Prefix is applied", func(t *testing.T) {
		assert.NoError(t, store.Set(ctx, "user", "u"))
		raw, err := store.client.Get(ctx, "test:user").Result()
		assert.NoError(t, err)
		assert.Equal(t, "u", raw)
	})

	t.Run("Get Not Found", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.NoError(t, store.Set(ctx, "a", "1"))
		assert.NoError(t, store.Delete(ctx, "a", "never-set"))
		_, err := store.Get(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("TTL", func(t *testing.T) {
		short, err := New(ctx, Options{Addr: addr, Prefix: "ttl:", TTL: time.Minute})
		require.NoError(t, err)
		defer short.Close()

		assert.NoError(t, short.Set(ctx, "token", "t"))
		ttl, err := short.client.TTL(ctx, "ttl:token").Result()
		assert.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0), "Ключ должен иметь срок жизни")
	})

	t.Run("Unreachable server", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := New(cctx, Options{Addr: "127.0.0.1:1"})
		assert.Error(t, err)
	})
}
