package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrSlotTaken is returned when a (date, time) slot already has a booking.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrSlotNotFound is returned when no booking exists at a (date, time) slot.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrNotOwner is returned when a cancellation names someone other than the booker.
	ErrNotOwner = errors.New("slot booked by someone else")
	// ErrUnavailable wraps failures of the backing store.
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps sentinel and validation errors to a stable label used in
// logs and API error bodies.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrSlotTaken):
		return "conflict"
	case errors.Is(err, ErrSlotNotFound):
		return "not_found"
	case errors.Is(err, ErrNotOwner):
		return "forbidden"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
