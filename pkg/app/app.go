// Package app wires configuration, storage, events and the HTTP router into
// one running service.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/arnavshah/walk-scheduler/pkg/booking"
	"github.com/arnavshah/walk-scheduler/pkg/config"
	"github.com/arnavshah/walk-scheduler/pkg/database"
	"github.com/arnavshah/walk-scheduler/pkg/handlers"
	"github.com/arnavshah/walk-scheduler/pkg/leaderboard"
	"github.com/arnavshah/walk-scheduler/pkg/notify"
	"github.com/arnavshah/walk-scheduler/pkg/participants"
	"github.com/arnavshah/walk-scheduler/pkg/slots"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds the long lived dependencies of the API process.
type App struct {
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client
	Dispatcher *notify.Dispatcher
	Logger     *slog.Logger
}

// New opens storage, connects the event channel and builds the router.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := OpenRedis(cfg.RedisURL)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	if rdb != nil {
		notifier = notify.NewRedisNotifier(rdb, cfg.NotifyChannel)
		logger.Info("publishing booking events", "channel", cfg.NotifyChannel)
	} else {
		logger.Info("REDIS_URL not set, booking events go to the log")
	}
	dispatcher := notify.NewDispatcher(notifier, logger)

	store := slots.NewStore(db)
	registry := participants.NewRegistry(db)
	h := &handlers.Handler{
		Bookings:     booking.NewService(store, registry, dispatcher, logger),
		Slots:        store,
		Participants: registry,
		Leaderboard:  leaderboard.NewAggregator(store, registry),
		DB:           db,
		Redis:        rdb,
		Logger:       logger,
	}

	return &App{
		Router:     handlers.NewRouter(cfg, h),
		DB:         db,
		Redis:      rdb,
		Dispatcher: dispatcher,
		Logger:     logger,
	}, nil
}

// Close waits for in-flight event deliveries, then releases connections.
func (a *App) Close() error {
	a.Dispatcher.Wait()

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, database.Close(a.DB))
	return errors.Join(errs...)
}

// OpenRedis parses url into a client. An empty url returns a nil client.
func OpenRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
