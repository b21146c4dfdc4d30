package models

import (
	"encoding/json"
	"fmt"
)

// Action tags a booking event.
type Action string

const (
	ActionBook   Action = "book"
	ActionCancel Action = "cancel"
)

// Event is a booking change handed to the notification collaborator. The
// only implementations are BookedEvent and CancelledEvent, so a type switch
// over the two is exhaustive.
type Event interface {
	Action() Action
	EventSlot() Slot
	isEvent()
}

// BookedEvent is emitted after a slot has been booked.
type BookedEvent struct {
	Slot Slot
}

// CancelledEvent is emitted after a slot has been cancelled by its owner.
type CancelledEvent struct {
	Slot Slot
}

func (BookedEvent) Action() Action { return ActionBook }
func (e BookedEvent) EventSlot() Slot { return e.Slot }
func (BookedEvent) isEvent() {}
func (CancelledEvent) Action() Action { return ActionCancel }
func (e CancelledEvent) EventSlot() Slot { return e.Slot }
func (CancelledEvent) isEvent() {}

// eventPayload is the flat wire form shared by both variants. ID names the
// booking, so a rebooking of the same slot is a different event.
type eventPayload struct {
	Action  Action `json:"action"`
	ID      string `json:"id,omitempty"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Note    string `json:"note,omitempty"`
}

func payloadOf(e Event) eventPayload {
	s := e.EventSlot()
	return eventPayload{
		Action:  e.Action(),
		ID:      s.ID,
		Date:    s.Date,
		Time:    s.Time,
		Name:    s.Name,
		Contact: s.Contact,
		Note:    s.Note,
	}
}

// MarshalJSON implements json.Marshaler.
func (e BookedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(payloadOf(e))
}

// MarshalJSON implements json.Marshaler.
func (e CancelledEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(payloadOf(e))
}

// DecodeEvent parses the flat wire form back into its variant.
func DecodeEvent(data []byte) (Event, error) {
	var p eventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	slot := Slot{
		ID:      p.ID,
		Date:    p.Date,
		Time:    p.Time,
		Name:    p.Name,
		Contact: p.Contact,
		Note:    p.Note,
	}
	switch p.Action {
	case ActionBook:
		return BookedEvent{Slot: slot}, nil
	case ActionCancel:
		return CancelledEvent{Slot: slot}, nil
	default:
		return nil, fmt.Errorf("decode event: unknown action %q", p.Action)
	}
}
