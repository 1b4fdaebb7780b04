package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ButyrinIA/postboard/internal/api"
	"github.com/ButyrinIA/postboard/internal/config"
	"github.com/ButyrinIA/postboard/internal/export"
	"github.com/ButyrinIA/postboard/internal/session"
	"github.com/ButyrinIA/postboard/internal/settings"
	"github.com/ButyrinIA/postboard/internal/storage"
	"github.com/ButyrinIA/postboard/internal/storage/file"
	"github.com/ButyrinIA/postboard/internal/storage/memory"
	"github.com/ButyrinIA/postboard/internal/storage/postgres"
	redisstore "github.com/ButyrinIA/postboard/internal/storage/redis"
	"github.com/ButyrinIA/postboard/internal/storage/sqlite"
)

// app связывает клиент, сессию и хранилище для всех команд
type app struct {
	cfg      *config.Config
	store    storage.Storage
	client   *api.Client
	session  *session.Session
	exporter *export.Exporter
	settings *settings.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout)
	sess := session.New(store, client)
	// 401 на любом защищенном запросе сбрасывает сессию
	client.OnUnauthorized(func() { sess.Expire(context.WithoutCancel(ctx)) })

	return &app{
		cfg:      cfg,
		store:    store,
		client:   client,
		session:  sess,
		exporter: export.New(client, cfg.Export.Dir),
		settings: settings.New(client, sess, store),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.New(), nil
	case "file":
		s, err := file.New(cfg.Storage.File)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.Storage.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite state: %w", err)
		}
		return s, nil
	case "postgres":
		ns := cfg.Postgres.Namespace
		if ns == "" {
			ns, _ = os.Hostname()
		}
		s, err := postgres.New(ctx, cfg.Postgres.DSN, ns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return s, nil
	case "redis":
		s, err := redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

// restore loads the persisted session and fails when nobody is signed in.
func (a *app) restore(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		slog.Warn("failed to restore session", "error", err)
	}
	if !a.session.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}
