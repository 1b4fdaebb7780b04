package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButyrinIA/postboard/internal/storage"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing file starts empty", func(t *testing.T) {
		store, err := New(filepath.Join(t.TempDir(), "nested", "state.yaml"))
		require.NoError(t, err)

		_, err = store.Get(ctx, "token")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "state.yaml")
		store, err := New(path)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "token", "abc"))
		require.NoError(t, store.Set(ctx, "user", `{"email":"a@b.c"}`))
		require.NoError(t, store.Close())

		reopened, err := New(path)
		require.NoError(t, err, "Не удалось перечитать файл состояния")

		got, err := reopened.Get(ctx, "user")
		assert.NoError(t, err)
		assert.Equal(t, `{"email":"a@b.c"}`, got, "Значение должно пережить перезапуск")
	})

	t.Run("Delete is persisted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.yaml")
		store, err := New(path)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "token", "abc"))
		require.NoError(t, store.Delete(ctx, "token"))

		reopened, err := New(path)
		require.NoError(t, err)
		_, err = reopened.Get(ctx, "token")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("No temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(filepath.Join(dir, "state.yaml"))
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, "k", "v"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "state.yaml", entries[0].Name())
	})

	t.Run("Corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.yaml")
		require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

		_, err := New(path)
		assert.Error(t, err, "Ожидалась ошибка разбора")
	})
}
