package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arnavshah/walk-scheduler/internal/calendar"
	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Deduper is the part of *redis.Client used to drop repeated events.
type Deduper interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Sink receives formatted messages. Providers (SMS and the like) plug in here.
type Sink interface {
	Deliver(ctx context.Context, ev models.Event, message string) error
}

// LogSink writes messages to the log.
type LogSink struct {
	Logger *slog.Logger
}

// Deliver implements Sink.
func (s LogSink) Deliver(ctx context.Context, ev models.Event, message string) error {
	logging.FromContext(ctx, s.Logger).Info("walk notification", "action", string(ev.Action()), "message", message)
	return nil
}

// Listener consumes booking events from Redis on the collaborator side.
type Listener struct {
	dedup Deduper
	ttl   time.Duration
	sink  Sink
	log   *slog.Logger
}

// NewListener creates a listener. A nil dedup disables deduplication.
func NewListener(dedup Deduper, ttl time.Duration, sink Sink, logger *slog.Logger) *Listener {
	return &Listener{dedup: dedup, ttl: ttl, sink: sink, log: logger}
}

// Run subscribes to channel and handles messages until ctx is done.
func (l *Listener) Run(ctx context.Context, rdb *redis.Client, channel string) error {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	l.log.Info("listening for booking events", "channel", channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := l.Handle(ctx, []byte(msg.Payload)); err != nil {
				l.log.Warn("booking event dropped", "error", err)
			}
		}
	}
}

// Handle decodes, deduplicates, formats and delivers one payload.
func (l *Listener) Handle(ctx context.Context, payload []byte) error {
	ev, err := models.DecodeEvent(payload)
	if err != nil {
		return err
	}

	if l.dedup == nil {
		return l.sink.Deliver(ctx, ev, Format(ev))
	}

	key := DedupKey(ev)
	fresh, err := l.dedup.SetNX(ctx, key, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if !fresh {
		l.log.Debug("duplicate booking event skipped", "key", key)
		return nil
	}

	if err := l.sink.Deliver(ctx, ev, Format(ev)); err != nil {
		// release the claim so a redelivery is not mistaken for a duplicate
		if derr := l.dedup.Del(ctx, key).Err(); derr != nil {
			l.log.Warn("dedup key not released", "key", key, "error", derr)
		}
		return err
	}
	return nil
}

// DedupKey identifies an event for deduplication. The booking id, when
// present, keeps a cancel and rebook of the same slot apart.
func DedupKey(ev models.Event) string {
	s := ev.EventSlot()
	parts := []string{"notify", "dedup", string(ev.Action()), s.Date, s.Time, s.Name}
	if s.ID != "" {
		parts = append(parts, s.ID)
	}
	return strings.Join(parts, ":")
}

// Format renders an event as a short human-readable message.
func Format(ev models.Event) string {
	s := ev.EventSlot()
	when := describeSlot(s.Date, s.Time)

	switch ev.(type) {
	case models.BookedEvent:
		msg := fmt.Sprintf("%s booked the %s walk.", s.Name, when)
		if s.Note != "" {
			msg += " Note: " + s.Note
		}
		return msg
	case models.CancelledEvent:
		return fmt.Sprintf("%s cancelled the %s walk. The slot is open again.", s.Name, when)
	default:
		return fmt.Sprintf("%s changed the %s walk.", s.Name, when)
	}
}

func describeSlot(date, hhmm string) string {
	day := date
	if d, err := calendar.ParseDate(date); err == nil {
		day = d.Format("Mon Jan 2")
	}
	clock := hhmm
	if t, err := time.Parse("1504", hhmm); err == nil {
		clock = t.Format("3:04pm")
	}
	return day + " " + clock
}
