// Package booking couples slot writes with participant registration and
// booking change events.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/models"
)

// SlotStore is the slot persistence the service writes through.
type SlotStore interface {
	Validate(in models.BookingInput) error
	Add(ctx context.Context, in models.BookingInput) (models.Slot, error)
	Get(ctx context.Context, date, hhmm string) (models.Slot, bool, error)
	RemoveOwned(ctx context.Context, date, hhmm, name string) (bool, error)
}

// Registry records who has booked walks.
type Registry interface {
	Upsert(ctx context.Context, in models.ParticipantInput) (models.Participant, error)
}

// Dispatcher emits booking events without blocking the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.Event)
}

// Service books and cancels walks.
type Service struct {
	slots    SlotStore
	registry Registry
	events   Dispatcher
	logger   *slog.Logger
}

// NewService wires a booking service.
func NewService(slots SlotStore, registry Registry, events Dispatcher, logger *slog.Logger) *Service {
	return &Service{slots: slots, registry: registry, events: events, logger: logger}
}

func (s *Service) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	pairs := append([]any{"service", "booking", "operation", operation}, attrs...)
	return logging.FromContext(ctx, s.logger).With(pairs...)
}

// Validate reports what is wrong with a booking without writing anything.
func (s *Service) Validate(in models.BookingInput) error {
	return s.slots.Validate(in)
}

// Book claims a slot for in.Name. A taken slot fails with models.ErrSlotTaken
// and leaves the registry and event stream untouched.
func (s *Service) Book(ctx context.Context, in models.BookingInput) (models.Slot, error) {
	logger := s.log(ctx, "book", "date", in.Date, "time", in.Time)

	slot, err := s.slots.Add(ctx, in)
	if err != nil {
		logger.Info("booking rejected", "error_kind", models.ErrorKind(err), "error", err)
		return models.Slot{}, err
	}

	// the slot is the primary fact; a registry failure is only logged
	if _, err := s.registry.Upsert(ctx, models.ParticipantInput{Name: slot.Name, Contact: slot.Contact}); err != nil {
		logger.Warn("participant upsert failed", "name", slot.Name, "error_kind", models.ErrorKind(err), "error", err)
	}

	s.events.Dispatch(ctx, models.BookedEvent{Slot: slot})
	logger.Info("slot booked", "name", slot.Name)
	return slot, nil
}

// Cancel frees a slot. Only the name stored on the slot may cancel it.
func (s *Service) Cancel(ctx context.Context, in models.CancelInput) error {
	logger := s.log(ctx, "cancel", "date", in.Date, "time", in.Time)

	if err := models.Validate(in); err != nil {
		return err
	}
	name := strings.TrimSpace(in.Name)

	slot, ok, err := s.slots.Get(ctx, in.Date, in.Time)
	if err != nil {
		logger.Error("slot lookup failed", "error_kind", models.ErrorKind(err), "error", err)
		return err
	}
	if !ok {
		return fmt.Errorf("cancel %s %s: %w", in.Date, in.Time, models.ErrSlotNotFound)
	}
	if slot.Name != name {
		logger.Info("cancellation refused", "error_kind", "forbidden")
		return fmt.Errorf("cancel %s %s: %w", in.Date, in.Time, models.ErrNotOwner)
	}

	removed, err := s.slots.RemoveOwned(ctx, in.Date, in.Time, name)
	if err != nil {
		logger.Error("slot removal failed", "error_kind", models.ErrorKind(err), "error", err)
		return err
	}
	if !removed {
		// cancelled, or cancelled and rebooked, between lookup and delete
		return fmt.Errorf("cancel %s %s: %w", in.Date, in.Time, models.ErrSlotNotFound)
	}

	s.events.Dispatch(ctx, models.CancelledEvent{Slot: slot})
	logger.Info("slot cancelled", "name", name)
	return nil
}
