package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env string `yaml:"env"` // "local" или "prod"

	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Feed struct {
		PerPage int `yaml:"per_page"`
	} `yaml:"feed"`

	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`

	Storage struct {
		Type   string `yaml:"type"` // memory, file, sqlite, postgres, redis
		File   string `yaml:"file"`
		SQLite string `yaml:"sqlite"`
	} `yaml:"storage"`

	Postgres struct {
		DSN string `yaml:"dsn"`
		// Namespace разделяет состояние рабочих мест, по умолчанию имя хоста
		Namespace string `yaml:"namespace"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Server struct {
		Port      string `yaml:"port"`
		Fixtures  string `yaml:"fixtures"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{Env: "local"}
	cfg.API.BaseURL = "http://localhost:5000/api"
	cfg.API.Timeout = 30 * time.Second
	cfg.Feed.PerPage = 20
	cfg.Export.Dir = "."
	cfg.Storage.Type = "file"
	cfg.Storage.File = defaultStatePath("state.yaml")
	cfg.Storage.SQLite = defaultStatePath("state.db")
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Prefix = "postboard:"
	cfg.Redis.TTL = 24 * time.Hour
	cfg.Log.Level = "info"
	cfg.Server.Port = "5000"
	cfg.Server.JWTSecret = "supersecretkey"
	return cfg
}

// Load читает YAML-файл поверх значений по умолчанию. Отсутствующий файл не ошибка.
// Переменные окружения (и .env) имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.API.BaseURL = getEnv("POSTBOARD_API_URL", c.API.BaseURL)
	c.Storage.Type = getEnv("POSTBOARD_STORAGE", c.Storage.Type)
	c.Storage.File = getEnv("POSTBOARD_STATE_FILE", c.Storage.File)
	c.Storage.SQLite = getEnv("POSTBOARD_SQLITE", c.Storage.SQLite)
	c.Postgres.DSN = getEnv("POSTBOARD_PG_DSN", c.Postgres.DSN)
	c.Redis.Addr = getEnv("POSTBOARD_REDIS_ADDR", c.Redis.Addr)
	c.Export.Dir = getEnv("POSTBOARD_EXPORT_DIR", c.Export.Dir)
	c.Log.Level = getEnv("POSTBOARD_LOG_LEVEL", c.Log.Level)
	c.Feed.PerPage = getEnvInt("POSTBOARD_PER_PAGE", c.Feed.PerPage)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
}

// Validate отсекает заведомо сломанную конфигурацию
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Feed.PerPage <= 0 {
		return fmt.Errorf("feed.per_page must be positive, got %d", c.Feed.PerPage)
	}
	switch c.Storage.Type {
	case "memory", "file", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Storage.Type == "postgres" && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required for postgres storage")
	}
	return nil
}

func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "postboard-" + name
	}
	return filepath.Join(dir, "postboard", name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

// LogLevel разбирает log.level, нераспознанное значение дает info
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
