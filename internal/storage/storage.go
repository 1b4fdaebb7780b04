package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда ключа нет в хранилище
var ErrNotFound = errors.New("key not found")

// Storage - долговременное клиентское хранилище (аналог localStorage браузера).
// Значения переживают перезапуск клиента.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
