package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/ButyrinIA/postboard/internal/config"
	"github.com/ButyrinIA/postboard/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	fixtures := flag.String("fixtures", "", "YAML с пользователями и постами (по умолчанию сгенерированные данные)")
	samplePosts := flag.Int("sample-posts", 120, "сколько постов сгенерировать без файла фикстур")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Не удалось загрузить конфигурацию", "error", err)
		os.Exit(1)
	}
	initLogger(cfg)

	path := *fixtures
	if path == "" {
		path = cfg.Server.Fixtures
	}

	var data *server.Dataset
	if path != "" {
		slog.Info("Загрузка фикстур", "path", path)
		data, err = server.LoadFixtures(path)
	} else {
		slog.Info("Генерация тестовых данных", "posts", *samplePosts)
		data, err = server.SampleDataset(time.Now(), *samplePosts)
	}
	if err != nil {
		slog.Error("Не удалось подготовить данные", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, data)
	slog.Info("Запуск сервера", "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		slog.Error("Не удалось запустить сервер", "error", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
