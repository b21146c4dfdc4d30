// Package notify carries booking events to the notification collaborator.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, ev models.Event) error
}

// Publisher is the part of *redis.Client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes events as JSON on a Redis channel.
type RedisNotifier struct {
	pub     Publisher
	channel string
}

// NewRedisNotifier creates a notifier publishing to channel.
func NewRedisNotifier(pub Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{pub: pub, channel: channel}
}

// Notify implements Notifier.
func (n *RedisNotifier) Notify(ctx context.Context, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Action(), err)
	}
	if err := n.pub.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s event to %s: %w", ev.Action(), n.channel, err)
	}
	return nil
}

// LogNotifier writes events to the log. It stands in when Redis is not configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, ev models.Event) error {
	s := ev.EventSlot()
	logging.FromContext(ctx, n.Logger).Info("booking event",
		"action", string(ev.Action()),
		"date", s.Date,
		"time", s.Time,
		"name", s.Name,
	)
	return nil
}
