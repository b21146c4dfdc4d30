package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/redis/go-redis/v9"
)

type fakePublisher struct {
	mu       sync.Mutex
	channel  string
	messages []string
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channel = channel
	p.messages = append(p.messages, string(message.([]byte)))
	return redis.NewIntResult(1, p.err)
}

type fakeDeduper struct {
	seen map[string]bool
}

func (d *fakeDeduper) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	if d.seen[key] {
		return redis.NewBoolResult(false, nil)
	}
	d.seen[key] = true
	return redis.NewBoolResult(true, nil)
}

func (d *fakeDeduper) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if d.seen[key] {
			delete(d.seen, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type recordingSink struct {
	messages []string
	fail     int
}

func (s *recordingSink) Deliver(_ context.Context, _ models.Event, message string) error {
	if s.fail > 0 {
		s.fail--
		return errors.New("sms gateway down")
	}
	s.messages = append(s.messages, message)
	return nil
}

type funcNotifier func(ctx context.Context, ev models.Event) error

func (f funcNotifier) Notify(ctx context.Context, ev models.Event) error { return f(ctx, ev) }

var aliceSlot = models.Slot{Date: "2025-04-20", Time: "1200", Name: "Alice", Contact: "555-0100", Note: "bring treats"}

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedisNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRedisNotifier(pub, "walk-events")

	if err := n.Notify(context.Background(), models.BookedEvent{Slot: aliceSlot}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if pub.channel != "walk-events" || len(pub.messages) != 1 {
		t.Fatalf("Expected one message on walk-events, got %v on %s", pub.messages, pub.channel)
	}
	if !strings.Contains(pub.messages[0], `"action":"book"`) {
		t.Errorf("Unexpected payload %s", pub.messages[0])
	}

	pub.err = errors.New("connection refused")
	if err := n.Notify(context.Background(), models.CancelledEvent{Slot: aliceSlot}); err == nil {
		t.Error("Expected publish failure to be returned")
	}
}

func TestDispatcher_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(funcNotifier(func(context.Context, models.Event) error {
		return errors.New("sms gateway down")
	}), quietLogger(&buf))

	d.Dispatch(context.Background(), models.BookedEvent{Slot: aliceSlot})
	d.Wait()

	if !strings.Contains(buf.String(), "sms gateway down") {
		t.Errorf("Expected failure to be logged, got %q", buf.String())
	}
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(funcNotifier(func(context.Context, models.Event) error {
		panic("boom")
	}), quietLogger(&buf))

	d.Dispatch(context.Background(), models.CancelledEvent{Slot: aliceSlot})
	d.Wait()

	if !strings.Contains(buf.String(), "notifier panic") {
		t.Errorf("Expected panic to be logged, got %q", buf.String())
	}
}

func TestDispatcher_DoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	d := NewDispatcher(funcNotifier(func(context.Context, models.Event) error {
		<-release
		return nil
	}), quietLogger(&bytes.Buffer{}))

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), models.BookedEvent{Slot: aliceSlot})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on the notifier")
	}
	close(release)
	d.Wait()
}

func TestDispatcher_IgnoresRequestCancellation(t *testing.T) {
	var delivered error
	d := NewDispatcher(funcNotifier(func(ctx context.Context, _ models.Event) error {
		delivered = ctx.Err()
		return nil
	}), quietLogger(&bytes.Buffer{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, models.BookedEvent{Slot: aliceSlot})
	d.Wait()

	if delivered != nil {
		t.Errorf("Expected delivery context to be live, got %v", delivered)
	}
}

func TestListener_Handle(t *testing.T) {
	sink := &recordingSink{}
	l := NewListener(&fakeDeduper{seen: map[string]bool{}}, time.Hour, sink, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	payload := []byte(`{"action":"book","date":"2025-04-20","time":"1200","name":"Alice","note":"bring treats"}`)
	if err := l.Handle(ctx, payload); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if err := l.Handle(ctx, payload); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(sink.messages) != 1 {
		t.Fatalf("Expected duplicate to be skipped, got %d messages", len(sink.messages))
	}
	if sink.messages[0] != "Alice booked the Sun Apr 20 12:00pm walk. Note: bring treats" {
		t.Errorf("Unexpected message %q", sink.messages[0])
	}

	if err := l.Handle(ctx, []byte(`{"action":"cancel","date":"2025-04-20","time":"1200","name":"Alice"}`)); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(sink.messages) != 2 {
		t.Fatalf("Expected cancellation to be delivered, got %d messages", len(sink.messages))
	}

	if err := l.Handle(ctx, []byte(`not json`)); err == nil {
		t.Error("Expected malformed payload to fail")
	}
}

func TestFormat(t *testing.T) {
	got := Format(models.CancelledEvent{Slot: models.Slot{Date: "2025-04-21", Time: "0830", Name: "Bob"}})
	if got != "Bob cancelled the Mon Apr 21 8:30am walk. The slot is open again." {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestDedupKey(t *testing.T) {
	if got := DedupKey(models.BookedEvent{Slot: aliceSlot}); got != "notify:dedup:book:2025-04-20:1200:Alice" {
		t.Errorf("Unexpected key %q", got)
	}

	booked := aliceSlot
	booked.ID = "b1"
	if got := DedupKey(models.BookedEvent{Slot: booked}); got != "notify:dedup:book:2025-04-20:1200:Alice:b1" {
		t.Errorf("Unexpected key %q", got)
	}
}

func TestListener_RebookAfterCancel(t *testing.T) {
	sink := &recordingSink{}
	l := NewListener(&fakeDeduper{seen: map[string]bool{}}, time.Hour, sink, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()

	for _, payload := range []string{
		`{"action":"book","id":"b1","date":"2025-04-20","time":"1200","name":"Alice"}`,
		`{"action":"cancel","id":"b1","date":"2025-04-20","time":"1200","name":"Alice"}`,
		`{"action":"book","id":"b2","date":"2025-04-20","time":"1200","name":"Alice"}`,
	} {
		if err := l.Handle(ctx, []byte(payload)); err != nil {
			t.Fatalf("Handle(%s) returned error: %v", payload, err)
		}
	}
	if len(sink.messages) != 3 {
		t.Errorf("Expected book, cancel and rebook to be delivered, got %v", sink.messages)
	}
}

func TestListener_FailedDeliveryIsRetried(t *testing.T) {
	sink := &recordingSink{fail: 1}
	l := NewListener(&fakeDeduper{seen: map[string]bool{}}, time.Hour, sink, quietLogger(&bytes.Buffer{}))
	ctx := context.Background()
	payload := []byte(`{"action":"book","id":"b1","date":"2025-04-20","time":"1200","name":"Alice"}`)

	if err := l.Handle(ctx, payload); err == nil {
		t.Fatal("Expected the delivery failure to be returned")
	}
	if err := l.Handle(ctx, payload); err != nil {
		t.Fatalf("Handle returned error on redelivery: %v", err)
	}
	if len(sink.messages) != 1 {
		t.Errorf("Expected the redelivered event to reach the sink, got %v", sink.messages)
	}
}
