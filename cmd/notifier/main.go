// Command notifier subscribes to booking events and renders them as
// human-readable messages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/app"
	"github.com/arnavshah/walk-scheduler/pkg/config"
	"github.com/arnavshah/walk-scheduler/pkg/notify"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "", "").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("component", "notifier")

	rdb, err := app.OpenRedis(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to configure redis", "error", err)
		os.Exit(1)
	}
	if rdb == nil {
		logger.Error("REDIS_URL is required")
		os.Exit(1)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener := notify.NewListener(rdb, cfg.NotifyDedup, notify.LogSink{Logger: logger}, logger)
	if err := listener.Run(ctx, rdb, cfg.NotifyChannel); err != nil {
		logger.Error("listener stopped", "error", err)
		os.Exit(1)
	}
}
