package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/models"
)

// DefaultTimeout bounds a single background delivery.
const DefaultTimeout = 5 * time.Second

// Dispatcher runs deliveries in the background. A failed delivery is logged
// and never reaches the caller that triggered it.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher around notifier.
func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger, timeout: DefaultTimeout}
}

// Dispatch hands ev to the notifier on its own goroutine and returns at once.
// The request context only contributes its logger; its cancellation does not
// abort delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) {
	logger := logging.FromContext(ctx, d.logger).With("action", string(ev.Action()))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		deliverCtx, cancel := context.WithTimeout(logging.ContextWithLogger(context.Background(), logger), d.timeout)
		defer cancel()

		if err := d.deliver(deliverCtx, ev); err != nil {
			logger.Warn("notification failed", "error", err)
			return
		}
		logger.Debug("notification sent")
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, ev models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, ev)
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
