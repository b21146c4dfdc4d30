// Package slots owns the persisted set of booked walks and the one booking
// per (date, time) rule.
package slots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/walk-scheduler/internal/calendar"
	"github.com/arnavshah/walk-scheduler/pkg/database"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store persists slots through gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a slot store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock replaces the time source used to stamp createdAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// NameCount is the number of walks booked under one name.
type NameCount struct {
	Name  string
	Count int
}

// Validate checks the shape of a booking without touching the database.
func (s *Store) Validate(in models.BookingInput) error {
	return models.Validate(in)
}

// Add books a slot. A second booking for the same (date, time) fails with
// models.ErrSlotTaken; the unique index decides races between writers.
func (s *Store) Add(ctx context.Context, in models.BookingInput) (models.Slot, error) {
	if err := s.Validate(in); err != nil {
		return models.Slot{}, err
	}

	rec := database.SlotRecord{
		ID:        uuid.NewString(),
		Date:      in.Date,
		Time:      in.Time,
		Name:      strings.TrimSpace(in.Name),
		Contact:   optional(in.Contact),
		Note:      optional(in.Note),
		CreatedAt: s.now().UnixMilli(),
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.Slot{}, fmt.Errorf("book %s %s: %w", in.Date, in.Time, models.ErrSlotTaken)
		}
		return models.Slot{}, unavailable(err)
	}
	return toSlot(rec), nil
}

// Get looks up the slot at (date, time). ok is false when nobody booked it.
func (s *Store) Get(ctx context.Context, date, hhmm string) (slot models.Slot, ok bool, err error) {
	var recs []database.SlotRecord
	err = s.db.WithContext(ctx).
		Where("slot_date = ? AND slot_time = ?", date, hhmm).
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return models.Slot{}, false, unavailable(err)
	}
	if len(recs) == 0 {
		return models.Slot{}, false, nil
	}
	return toSlot(recs[0]), true, nil
}

// Remove deletes the slot at (date, time) and reports whether one existed.
func (s *Store) Remove(ctx context.Context, date, hhmm string) (bool, error) {
	return s.remove(ctx, date, hhmm, "")
}

// RemoveOwned deletes the slot at (date, time) only while it is still booked
// under name, so a cancel can never delete a booking made after its ownership
// check.
func (s *Store) RemoveOwned(ctx context.Context, date, hhmm, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	return s.remove(ctx, date, hhmm, name)
}

func (s *Store) remove(ctx context.Context, date, hhmm, name string) (bool, error) {
	q := s.db.WithContext(ctx).Where("slot_date = ? AND slot_time = ?", date, hhmm)
	if name != "" {
		q = q.Where("name = ?", name)
	}
	res := q.Delete(&database.SlotRecord{})
	if res.Error != nil {
		return false, unavailable(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Week returns the seven dates starting at start, each mapped to its slots in
// time order. Days without bookings map to an empty slice.
func (s *Store) Week(ctx context.Context, start string) (models.WeekSchedule, error) {
	days, err := calendar.Week(start)
	if err != nil {
		vErr := &models.ValidationError{}
		vErr.Add("start", "must be a calendar date in YYYY-MM-DD form")
		return nil, vErr
	}

	week := make(models.WeekSchedule, len(days))
	for _, d := range days {
		week[d] = []models.Slot{}
	}

	recs, err := s.inRange(ctx, days[0], days[len(days)-1])
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		week[rec.Date] = append(week[rec.Date], toSlot(rec))
	}
	return week, nil
}

// inRange loads slots with first <= date <= last ordered by date then time.
func (s *Store) inRange(ctx context.Context, first, last string) ([]database.SlotRecord, error) {
	var recs []database.SlotRecord
	err := s.db.WithContext(ctx).
		Where("slot_date >= ? AND slot_date <= ?", first, last).
		Order("slot_date ASC").
		Order("slot_time ASC").
		Find(&recs).Error
	if err != nil {
		return nil, unavailable(err)
	}
	return recs, nil
}

// CountByName groups slots by name. An empty from or until leaves that side of
// the half-open range [from, until) unbounded.
func (s *Store) CountByName(ctx context.Context, from, until string) ([]NameCount, error) {
	q := s.db.WithContext(ctx).Model(&database.SlotRecord{})
	if from != "" {
		q = q.Where("slot_date >= ?", from)
	}
	if until != "" {
		q = q.Where("slot_date < ?", until)
	}

	var rows []struct {
		Name  string
		Total int
	}
	err := q.Select("name, COUNT(*) AS total").
		Group("name").
		Scan(&rows).Error
	if err != nil {
		return nil, unavailable(err)
	}

	counts := make([]NameCount, len(rows))
	for i, r := range rows {
		counts[i] = NameCount{Name: r.Name, Count: r.Total}
	}
	return counts, nil
}

func toSlot(rec database.SlotRecord) models.Slot {
	slot := models.Slot{
		ID:        rec.ID,
		Date:      rec.Date,
		Time:      rec.Time,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Contact != nil {
		slot.Contact = *rec.Contact
	}
	if rec.Note != nil {
		slot.Note = *rec.Note
	}
	return slot
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
}
