package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ButyrinIA/postboard/internal/storage"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		store := New()
		token := uuid.NewString()

		assert.NoError(t, store.Set(ctx, "token", token), "Ошибка при сохранении токена")

		got, err := store.Get(ctx, "token")
		assert.NoError(t, err, "Ошибка при чтении токена")
		assert.Equal(t, token, got, "Прочитанный токен не совпадает с сохраненным")
	})

	t.Run("Get Not Found", func(t *testing.T) {
		store := New()

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound, "Ожидалась ошибка для несуществующего ключа")
	})

	t.Run("Set overwrites", func(t *testing.T) {
		store := New()
		assert.NoError(t, store.Set(ctx, "k", "v1"))
		assert.NoError(t, store.Set(ctx, "k", "v2"))

		got, err := store.Get(ctx, "k")
		assert.NoError(t, err)
		assert.Equal(t, "v2", got)
	})

	t.Run("Delete", func(t *testing.T) {
		store := New()
		assert.NoError(t, store.Set(ctx, "token", "t"))
		assert.NoError(t, store.Set(ctx, "user", "u"))
		assert.NoError(t, store.Set(ctx, "prefs", "p"))

		assert.NoError(t, store.Delete(ctx, "token", "user", "never-set"))

		_, err := store.Get(ctx, "token")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.Get(ctx, "user")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		got, err := store.Get(ctx, "prefs")
		assert.NoError(t, err, "Удаление не должно задевать другие ключи")
		assert.Equal(t, "p", got)
	})

	t.Run("Close", func(t *testing.T) {
		store := New()
		assert.NoError(t, store.Set(ctx, "token", "t"))

		assert.NoError(t, store.Close(), "Ошибка при закрытии хранилища")

		_, err := store.Get(ctx, "token")
		assert.Error(t, err, "Ожидалась ошибка после очистки хранилища")
	})
}
