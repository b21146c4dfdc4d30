// Package participants maps walker names to a stable palette color and an
// optional contact address.
package participants

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arnavshah/walk-scheduler/pkg/database"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/cespare/xxhash/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Registry stores participants through gorm.
type Registry struct {
	db   *gorm.DB
	size int

	// serialises first registrations so two new names never compute the same
	// free color from the same snapshot
	mu sync.Mutex
}

// NewRegistry creates a registry with the standard palette size.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db, size: models.PaletteSize}
}

// ColorIndex returns the color of name, registering it when unseen.
func (r *Registry) ColorIndex(ctx context.Context, name string) (int, error) {
	p, err := r.Upsert(ctx, models.ParticipantInput{Name: name})
	if err != nil {
		return 0, err
	}
	return p.ColorIndex, nil
}

// Upsert registers the participant if unknown and overwrites the stored
// contact when one is given. Repeating the same call leaves the same state.
func (r *Registry) Upsert(ctx context.Context, in models.ParticipantInput) (models.Participant, error) {
	if err := models.Validate(in); err != nil {
		return models.Participant{}, err
	}
	name := strings.TrimSpace(in.Name)
	contact := strings.TrimSpace(in.Contact)

	rec, found, err := r.find(r.db.WithContext(ctx), name)
	if err != nil {
		return models.Participant{}, err
	}
	if !found {
		rec, err = r.register(ctx, name, contact)
		if err != nil {
			return models.Participant{}, err
		}
	}

	if contact != "" && (rec.Contact == nil || *rec.Contact != contact) {
		err := r.db.WithContext(ctx).Model(&rec).Update("contact", contact).Error
		if err != nil {
			return models.Participant{}, unavailable(err)
		}
		rec.Contact = &contact
	}
	return toParticipant(rec), nil
}

// register inserts name with the lowest color no one holds, or count mod K
// once every color is taken.
func (r *Registry) register(ctx context.Context, name, contact string) (database.ParticipantRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rec database.ParticipantRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, found, err := r.find(tx, name)
		if err != nil {
			return err
		}
		if found {
			rec = existing
			return nil
		}

		var used []int
		if err := tx.Model(&database.ParticipantRecord{}).Pluck("color_index", &used).Error; err != nil {
			return unavailable(err)
		}

		rec = database.ParticipantRecord{
			Name:       name,
			ColorIndex: lowestFree(used, r.size),
		}
		if contact != "" {
			rec.Contact = &contact
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&rec)
		if res.Error != nil {
			return unavailable(res.Error)
		}
		if res.RowsAffected == 0 {
			// another process registered the name first
			existing, _, err := r.find(tx, name)
			if err != nil {
				return err
			}
			rec = existing
		}
		return nil
	})
	return rec, err
}

func lowestFree(used []int, size int) int {
	taken := make(map[int]bool, len(used))
	for _, idx := range used {
		taken[idx] = true
	}
	for i := 0; i < size; i++ {
		if !taken[i] {
			return i
		}
	}
	return len(used) % size
}

// List returns every participant ordered by name.
func (r *Registry) List(ctx context.Context) ([]models.Participant, error) {
	var recs []database.ParticipantRecord
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, unavailable(err)
	}
	return toParticipants(recs), nil
}

// Search returns participants whose name contains query, ignoring case. A
// blank query lists everyone.
func (r *Registry) Search(ctx context.Context, query string) ([]models.Participant, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var recs []database.ParticipantRecord
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("name ASC").
		Find(&recs).Error
	if err != nil {
		return nil, unavailable(err)
	}
	return toParticipants(recs), nil
}

// ColorIndexes looks up the stored colors of names without registering any.
// Names with no participant row are absent from the result.
func (r *Registry) ColorIndexes(ctx context.Context, names []string) (map[string]int, error) {
	colors := make(map[string]int, len(names))
	if len(names) == 0 {
		return colors, nil
	}
	var recs []database.ParticipantRecord
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&recs).Error; err != nil {
		return nil, unavailable(err)
	}
	for _, rec := range recs {
		colors[rec.Name] = rec.ColorIndex
	}
	return colors, nil
}

// FallbackColorIndex derives a color from the name alone. It is used only
// when no registry entry is available and does not keep colors distinct.
func FallbackColorIndex(name string) int {
	return int(xxhash.Sum64String(name) % uint64(models.PaletteSize))
}

func (r *Registry) find(db *gorm.DB, name string) (database.ParticipantRecord, bool, error) {
	var recs []database.ParticipantRecord
	if err := db.Where("name = ?", name).Limit(1).Find(&recs).Error; err != nil {
		return database.ParticipantRecord{}, false, unavailable(err)
	}
	if len(recs) == 0 {
		return database.ParticipantRecord{}, false, nil
	}
	return recs[0], true, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toParticipant(rec database.ParticipantRecord) models.Participant {
	p := models.Participant{Name: rec.Name, ColorIndex: rec.ColorIndex}
	if rec.Contact != nil {
		p.Contact = *rec.Contact
	}
	return p
}

func toParticipants(recs []database.ParticipantRecord) []models.Participant {
	out := make([]models.Participant, len(recs))
	for i, rec := range recs {
		out[i] = toParticipant(rec)
	}
	return out
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
}
