package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/postboard/internal/config"
)

const usage = `Usage: postboard [flags] <command> [command flags]

Commands:
  tui       interactive dashboard (default)
  login     sign in and store the session
  logout    forget the stored session
  whoami    show the signed-in user
  posts     list posts matching filters
  groups    list groups with post counts
  stats     show dashboard totals
  export    download posts as json, csv or xlsx

Flags:
`

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	storageType := flag.String("storage", "", "хранилище сессии: memory, file, sqlite, postgres, redis")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Не удалось загрузить конфигурацию:", err)
		os.Exit(1)
	}
	if *storageType != "" {
		cfg.Storage.Type = *storageType
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Неверные параметры:", err)
			os.Exit(2)
		}
	}

	cmd, args := "tui", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	// TUI занимает терминал, поэтому логи только в файл
	logOut := io.Writer(os.Stderr)
	if cmd == "tui" {
		logOut = io.Discard
		if cfg.Log.File != "" {
			f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Не удалось открыть файл логов:", err)
				os.Exit(1)
			}
			defer f.Close()
			logOut = f
		}
	}
	initLogger(cfg, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cmd, args); err != nil {
		stop()
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "tui":
		return a.runTUI(ctx)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "posts":
		return a.posts(ctx, args)
	case "groups":
		return a.groups(ctx)
	case "stats":
		return a.stats(ctx)
	case "export":
		return a.export(ctx, args)
	}
	return usageError(fmt.Sprintf("unknown command %q", cmd))
}

func initLogger(cfg *config.Config, w io.Writer) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
