package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/samvad-news-topics/internal/app"
	"github.com/samvad-hq/samvad-news-topics/internal/config"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	transport := pflag.String("transport", "http", "serve tools over http or stdio")
	envFile := pflag.String("env-file", ".env", "optional dotenv file")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("startup failed", "startup", map[string]any{"error": err.Error()})
		return err
	}
	defer func() { _ = a.Close() }()

	switch *transport {
	case "http":
		return a.ServeHTTP(ctx)
	case "stdio":
		return a.ServeStdio()
	default:
		return fmt.Errorf("unknown transport %q (expected http or stdio)", *transport)
	}
}
